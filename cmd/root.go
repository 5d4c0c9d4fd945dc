package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var debug bool
var serverURL string
var projectFlag string
var overrideCwd string

// defaultMaxChunks mirrors config.DefaultMaxChunks for call sites inside cmd.
const defaultMaxChunks = 5

var rootCmd = &cobra.Command{
	Use:   "ragbot",
	Short: "RAG Bot CLI - chat with your documents from the terminal",
	Long: `RAG Bot CLI is a terminal client for the Internal RAG Bot backend.
Create projects, upload documents into them, and ask questions that are
answered from retrieved document excerpts.

Getting started:
  # List projects on the server
  ragbot projects list

  # Create a project and upload documents
  ragbot projects create "Q3 Filings" --description "Quarterly filings"
  ragbot docs upload --project proj_abc123 report.pdf notes.txt

  # Ask a one-time question
  ragbot chat --project proj_abc123 "What were the Q3 revenue drivers?"

  # Start an interactive session
  ragbot chat`,

	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Welcome to RAG Bot!")
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Flags are parsed at this point; honor --debug
		if debug {
			logPath := "debug.log"
			if dataDir, err := getRagbotDataDir(); err == nil {
				if err := os.MkdirAll(dataDir, 0755); err == nil {
					logPath = filepath.Join(dataDir, "debug.log")
				}
			}
			if err := InitDebugLogger(logPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not open debug log: %v\n", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer CloseDebugLogger()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "RAG Bot server URL (default: http://localhost:8000)")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "", "Project ID (default: from ragbot.yaml)")
	rootCmd.PersistentFlags().StringVar(&overrideCwd, "cwd", "", "Override the current working directory for CLI operations")
}

// getRagbotDataDir returns the directory to store RAG Bot data.
var getRagbotDataDir = func() (string, error) {
	dataDir := os.Getenv("RAGBOT_DATA_DIR")
	if dataDir != "" {
		return dataDir, nil
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".ragbot"), nil
	}
	return "", fmt.Errorf("getRagbotDataDir: could not determine home directory")
}

// getEffectiveCWD returns the directory to treat as the working directory.
// If the global --cwd flag is provided, it returns its absolute path; otherwise os.Getwd().
func getEffectiveCWD() string {
	if strings.TrimSpace(overrideCwd) != "" {
		if filepath.IsAbs(overrideCwd) {
			return overrideCwd
		}
		abs, err := filepath.Abs(overrideCwd)
		if err != nil {
			return "."
		}
		return abs
	}

	wd, _ := os.Getwd()
	if wd == "" {
		return "."
	}

	return wd
}
