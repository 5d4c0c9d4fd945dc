package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ragbot-cli/cmd/config"

	"github.com/spf13/cobra"
)

// docsCmd represents the docs command
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage documents within a project",
	Long: `Manage the documents uploaded to a RAG Bot project.

Available commands:
  list   - List a project's documents
  upload - Upload one or more files to a project
  delete - Delete a document`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("RAG Bot Document Management")
		cmd.Help()
	},
}

// docsListCmd lists a project's documents
var docsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List documents in a project",
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
		docs, err := api.ListDocuments(clientCfg.Project)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing documents: %v\n", err)
			os.Exit(1)
		}

		if len(docs) == 0 {
			fmt.Printf("No documents in project %s\n", clientCfg.Project)
			return
		}

		for _, d := range docs {
			status := d.Status
			if d.Status == StatusError && d.ErrorMessage != "" {
				status = fmt.Sprintf("%s (%s)", d.Status, d.ErrorMessage)
			}
			fmt.Printf("%s  %-40s %8s  %s\n", d.ID, d.Filename, formatBytes(d.Size), status)
		}
	},
}

// docsUploadCmd uploads files to a project, one request per file
var docsUploadCmd = &cobra.Command{
	Use:   "upload [file]...",
	Short: "Upload documents to a project",
	Long: `Upload one or more files to a RAG Bot project.

Each file is transmitted in its own upload request; a failure on one file
does not abort the rest. The backend processes uploads asynchronously, so
freshly uploaded documents show as 'processing' until ready.

Supported file types: pdf, docx, doc, xlsx, xls, txt

Examples:
  ragbot docs upload --project proj_abc123 report.pdf
  ragbot docs upload --project proj_abc123 report.pdf notes.txt data.xlsx`,
	Args: cobra.MinimumNArgs(1),
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
		uploaded, failed := uploadFiles(api, clientCfg.Project, args)
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "Uploaded %d file(s), %d failed\n", uploaded, failed)
			os.Exit(1)
		}
		fmt.Printf("✅ Uploaded %d file(s) to project %s\n", uploaded, clientCfg.Project)
	},
}

// uploadFiles issues one upload request per path. Never batches: N paths
// always produce N requests, and per-file errors are reported individually.
func uploadFiles(api *APIClient, projectID string, paths []string) (uploaded, failed int) {
	for _, path := range paths {
		if !isAllowedFileType(path) {
			fmt.Fprintf(os.Stderr, "❌ %s: file type not allowed (allowed: %s)\n",
				path, strings.Join(AllowedFileTypes, ", "))
			failed++
			continue
		}
		doc, err := api.UploadDocument(projectID, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("📄 %s -> %s (%s)\n", filepath.Base(path), doc.ID, doc.Status)
		uploaded++
	}
	return uploaded, failed
}

func isAllowedFileType(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, allowed := range AllowedFileTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}

// docsDeleteCmd deletes a document by id
var docsDeleteCmd = &cobra.Command{
	Use:     "delete [document-id]",
	Aliases: []string{"rm", "remove", "del"},
	Short:   "Delete a document",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		documentID := args[0]

		clientCfg, err := config.GetClientConfig(getEffectiveCWD(), serverURL, projectFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Printf("⚠️  WARNING: This will permanently delete document '%s'\n", documentID)
			fmt.Print("Are you sure? Type 'yes' to confirm: ")

			var response string
			fmt.Scanln(&response)
			if response != "yes" {
				fmt.Println("Operation cancelled")
				return
			}
		}

		api := newAPIClient(clientCfg.URL)
		if err := api.DeleteDocument(documentID); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete document '%s': %v\n", documentID, err)
			os.Exit(1)
		}

		fmt.Printf("✅ Successfully deleted document '%s'\n", documentID)
	},
}

// formatBytes converts bytes to a human-readable string using binary units.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < len(units)-1; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

func init() {
	docsDeleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsUploadCmd)
	docsCmd.AddCommand(docsDeleteCmd)

	rootCmd.AddCommand(docsCmd)
}
