package cmd

import (
	"fmt"
	"os"
	"strings"

	"ragbot-cli/cmd/config"

	"github.com/spf13/cobra"
)

var (
	chatInputFile  string
	chatNoSources  bool
	chatMaxChunks  int
	chatNewSession bool
)

// chatCmd represents the `ragbot chat` command
var chatCmd = &cobra.Command{
	Use:   "chat [\"question\"]",
	Short: "Ask a project a question, or start an interactive session",
	Long: `Chat with a RAG Bot project. Answers are generated from retrieved
document excerpts ("sources") belonging to the project.

With an inline question (or --file), sends a single query and prints the
answer. Without input, starts the interactive TUI.

Examples:
  # One-shot question against the configured project
  ragbot chat "What are the main features of the product?"

  # Explicit project
  ragbot chat --project proj_abc123 "Summarize the Q3 filings"

  # Question from a file
  ragbot chat -f ./question.txt

  # Skip source excerpts in the output
  ragbot chat --no-sources "What changed between revisions?"

  # Interactive session
  ragbot chat`,
	Args: func(cmd *cobra.Command, args []string) error {
		if chatInputFile != "" && len(args) >= 1 {
			return fmt.Errorf("specify either --file or an inline question, not both")
		}
		if len(args) > 1 {
			return fmt.Errorf("provide the question as a single quoted argument")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		var input string
		if chatInputFile != "" {
			data, err := os.ReadFile(chatInputFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", chatInputFile, err)
				os.Exit(1)
			}
			input = strings.TrimSpace(string(data))
		} else if len(args) >= 1 {
			input = strings.TrimSpace(args[0])
		}

		clientCfg, err := config.GetClientConfig(getEffectiveCWD(), serverURL, projectFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Start an interactive chat session if no input is provided
		if input == "" {
			runChatSessionTUI(clientCfg)
			return
		}

		if clientCfg.Project == "" {
			fmt.Fprintln(os.Stderr, "Error: project is required. Provide --project or set it in ragbot.yaml")
			os.Exit(1)
		}

		StartConfigWatcherForCommand()

		api := newAPIClient(clientCfg.URL)

		conversationID := ""
		if !chatNewSession {
			conversationID = conversationForProject(clientCfg.Project)
		}

		maxChunks := clientCfg.MaxChunks
		if chatMaxChunks > 0 {
			maxChunks = chatMaxChunks
		}

		resp, err := api.SendQuery(ChatQueryRequest{
			ProjectID:      clientCfg.Project,
			Query:          input,
			ConversationID: conversationID,
			IncludeSources: clientCfg.IncludeSources && !chatNoSources,
			MaxChunks:      maxChunks,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if resp.ConversationID != "" {
			if err := writeConversationContext(clientCfg.Project, resp.ConversationID); err != nil {
				logDebug(fmt.Sprintf("Failed to write session context: %v", err))
			}
		}

		if resp.Response == "" {
			fmt.Println("No response received")
			return
		}
		fmt.Println(resp.Response)

		if len(resp.Sources) > 0 && !chatNoSources {
			fmt.Println("\nSources:")
			for i, src := range resp.Sources {
				fmt.Printf("  %d. %s", i+1, src.Filename)
				if src.RelevanceScore > 0 {
					fmt.Printf(" [%.2f]", src.RelevanceScore)
				}
				fmt.Println()
				if excerpt := strings.TrimSpace(src.Excerpt); excerpt != "" {
					fmt.Printf("     %s\n", truncateExcerpt(excerpt, 200))
				}
			}
		}
	},
}

// truncateExcerpt shortens an excerpt to max characters, never splitting a
// multi-byte rune at the boundary.
func truncateExcerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// chatHistoryCmd prints the flattened conversation history for a project
var chatHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a project's chat history",
	Long: `Show the chat history for a project.

Conversations are printed in the order the server returns them; within a
conversation, messages keep their original order.`,
	Run: func(cmd *cobra.Command, args []string) {
		clientCfg, err := config.GetClientConfig(getEffectiveCWD(), serverURL, projectFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if clientCfg.Project == "" {
			fmt.Fprintln(os.Stderr, "Error: project is required. Provide --project or set it in ragbot.yaml")
			os.Exit(1)
		}

		api := newAPIClient(clientCfg.URL)
		conversations, err := api.FetchHistory(clientCfg.Project)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching history: %v\n", err)
			os.Exit(1)
		}

		messages := FlattenHistory(clientCfg.Project, conversations)
		if len(messages) == 0 {
			fmt.Printf("No chat history for project %s\n", clientCfg.Project)
			return
		}

		for _, msg := range messages {
			label := "🧑 You"
			if msg.Role == "assistant" {
				label = "🤖 Assistant"
			}
			fmt.Printf("%s: %s\n\n", label, msg.Content)
		}
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatInputFile, "file", "f", "", "path to file containing the question")
	chatCmd.Flags().BoolVar(&chatNoSources, "no-sources", false, "Do not request or print source excerpts")
	chatCmd.Flags().IntVar(&chatMaxChunks, "max-chunks", 0, "Number of source excerpts to request (default: from config, 5)")
	chatCmd.Flags().BoolVar(&chatNewSession, "new-session", false, "Start a new conversation instead of continuing the stored one")

	chatCmd.AddCommand(chatHistoryCmd)
	rootCmd.AddCommand(chatCmd)
}
