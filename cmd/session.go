package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

// SessionContext persists the active conversation per project so that a new
// CLI invocation continues where the last one left off.
type SessionContext struct {
	Conversations map[string]string `yaml:"conversations"`
	Timestamp     string            `yaml:"timestamp"`
}

func sessionContextPath() (string, error) {
	cwd := getEffectiveCWD()
	if cwd == "" {
		return "", fmt.Errorf("failed to determine effective working directory")
	}
	return filepath.Join(cwd, ".ragbot", "context.yaml"), nil
}

// readSessionContext reads the session context from the YAML file if it exists
func readSessionContext() (*SessionContext, error) {
	contextFile, err := sessionContextPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(contextFile); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(contextFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}

	var ctx SessionContext
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("failed to parse context YAML: %w", err)
	}
	if len(ctx.Conversations) == 0 {
		return nil, nil
	}
	return &ctx, nil
}

// conversationForProject returns the stored conversation id for a project, if any.
func conversationForProject(projectID string) string {
	ctx, err := readSessionContext()
	if err != nil {
		logDebug(fmt.Sprintf("Failed to read session context: %v", err))
		return ""
	}
	if ctx == nil {
		return ""
	}
	return ctx.Conversations[projectID]
}

// writeConversationContext stores the conversation id for a project in the
// .ragbot directory, creating it as needed.
func writeConversationContext(projectID, conversationID string) error {
	if projectID == "" || conversationID == "" {
		return nil
	}

	contextFile, err := sessionContextPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(contextFile), 0755); err != nil {
		return fmt.Errorf("failed to create .ragbot directory: %w", err)
	}

	ctx, _ := readSessionContext()
	if ctx == nil {
		ctx = &SessionContext{Conversations: map[string]string{}}
	}
	if ctx.Conversations == nil {
		ctx.Conversations = map[string]string{}
	}
	ctx.Conversations[projectID] = conversationID
	ctx.Timestamp = time.Now().Format(time.RFC3339)

	data, err := yaml.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("failed to marshal context data to YAML: %w", err)
	}
	if err := os.WriteFile(contextFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}
	return nil
}

// clearConversationContext forgets the stored conversation id for a project.
func clearConversationContext(projectID string) error {
	ctx, err := readSessionContext()
	if err != nil || ctx == nil {
		return err
	}
	delete(ctx.Conversations, projectID)
	ctx.Timestamp = time.Now().Format(time.RFC3339)

	contextFile, err := sessionContextPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(contextFile, data, 0644)
}
