package cmd

import (
	"fmt"
	"os"
	"strings"

	"ragbot-cli/cmd/config"

	"github.com/spf13/cobra"
)

var projectDescription string

// projectsCmd represents the projects command
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage RAG Bot projects",
	Long: `Manage RAG Bot projects and their documents.

Available commands:
  list   - List projects on the server
  create - Create a new project
  delete - Delete a project and all its associated resources`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("RAG Bot Projects Management")
		cmd.Help()
	},
}

// projectsListCmd lists projects from the server
var projectsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	Long:    "List projects available on the RAG Bot server.",
	Run: func(cmd *cobra.Command, args []string) {
		clientCfg, err := config.GetClientConfig(getEffectiveCWD(), serverURL, projectFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		api := newAPIClient(clientCfg.URL)
		projects, err := api.ListProjects()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error requesting server: %v\n", err)
			os.Exit(1)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found")
			return
		}

		for _, p := range projects {
			desc := p.Description
			if desc != "" {
				desc = " - " + desc
			}
			fmt.Printf("%s  %s (%d files)%s\n", p.ID, p.Name, p.FileCount, desc)
		}
	},
}

// projectsCreateCmd creates a new project on the server
var projectsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new project",
	Long: `Create a new project on the RAG Bot server.

The server assigns the project id; the command prints it on success.

Examples:
  ragbot projects create "Q3 Filings"
  ragbot projects create "Q3 Filings" --description "Quarterly filings"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := strings.TrimSpace(args[0])
		if name == "" {
			fmt.Fprintln(os.Stderr, "Error: project name must be non-empty")
			os.Exit(1)
		}

		clientCfg, err := config.GetClientConfig(getEffectiveCWD(), serverURL, projectFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		api := newAPIClient(clientCfg.URL)
		project, err := api.CreateProject(name, projectDescription)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating project: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Created project '%s' (id: %s)\n", project.Name, project.ID)
	},
}

// projectsDeleteCmd represents the projects delete command
var projectsDeleteCmd = &cobra.Command{
	Use:     "delete [project-id]",
	Aliases: []string{"rm", "remove", "del"},
	Short:   "Delete a project and all its associated resources",
	Long: `Delete a project and all its associated resources from the RAG Bot server.

This operation is irreversible and will delete all project documents and
chat history.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		projectToDelete := args[0]

		clientCfg, err := config.GetClientConfig(getEffectiveCWD(), serverURL, projectFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Printf("⚠️  WARNING: This will permanently delete project '%s' and all associated data\n", projectToDelete)
			fmt.Print("Are you sure? Type 'yes' to confirm: ")

			var response string
			fmt.Scanln(&response)
			if response != "yes" {
				fmt.Println("Operation cancelled")
				return
			}
		}

		api := newAPIClient(clientCfg.URL)
		if err := api.DeleteProject(projectToDelete); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete project '%s': %v\n", projectToDelete, err)
			os.Exit(1)
		}

		fmt.Printf("✅ Successfully deleted project '%s'\n", projectToDelete)
	},
}

func init() {
	projectsCreateCmd.Flags().StringVar(&projectDescription, "description", "", "Optional project description")
	projectsDeleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)

	rootCmd.AddCommand(projectsCmd)
}
