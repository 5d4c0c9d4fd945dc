package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Document statuses as reported by the backend.
const (
	StatusUploading  = "uploading"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

// AllowedFileTypes lists the upload extensions the backend accepts.
var AllowedFileTypes = []string{"pdf", "docx", "doc", "xlsx", "xls", "txt"}

// Project represents a named collection of documents with its own chat history.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	FileCount   int       `json:"file_count"`
}

// Document represents an uploaded file tracked with a processing status.
type Document struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Filename     string    `json:"filename"`
	FileType     string    `json:"file_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Size         int64     `json:"size"`
	Status       string    `json:"status"`
	PageCount    *int      `json:"page_count,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Source is a retrieved document excerpt used to justify an assistant answer.
type Source struct {
	DocumentID     string  `json:"document_id"`
	Filename       string  `json:"filename"`
	Excerpt        string  `json:"excerpt,omitempty"`
	ChunkIndex     int     `json:"chunk_index,omitempty"`
	PageNumber     *int    `json:"page_number,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

// Message is a single chat message. Role is "user" or "assistant"; the
// "client" role is local-only and never sent to the server.
type Message struct {
	ID        string    `json:"id,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Sources   []Source  `json:"sources,omitempty"`
}

// Conversation is a backend-grouped sequence of chat messages for a project.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	ProjectID      string    `json:"project_id"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	MessageCount   int       `json:"message_count,omitempty"`
}

// ChatQueryRequest is the payload for POST /api/chat/query.
type ChatQueryRequest struct {
	ProjectID      string `json:"project_id"`
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
	IncludeSources bool   `json:"include_sources"`
	MaxChunks      int    `json:"max_chunks,omitempty"`
}

// ChatQueryResponse is the backend's answer envelope.
type ChatQueryResponse struct {
	Success         bool           `json:"success"`
	Response        string         `json:"response"`
	ConversationID  string         `json:"conversation_id"`
	Sources         []Source       `json:"sources,omitempty"`
	MessageMetadata map[string]any `json:"message_metadata,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// HealthPayload is the backend's GET /health response.
type HealthPayload struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Services  map[string]bool `json:"services,omitempty"`
}

// APIClient talks to the RAG bot backend. One method per endpoint; no retries,
// no caching — persistence and ordering are the backend's problem.
type APIClient struct {
	BaseURL string
	HTTP    HTTPClient
}

func newAPIClient(baseURL string) *APIClient {
	return &APIClient{BaseURL: baseURL, HTTP: getHTTPClient()}
}

// doJSON executes a request and decodes a JSON response into out (if non-nil).
func (c *APIClient) doJSON(method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, buildServerURL(c.BaseURL, path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, prettyServerError(resp, data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// ListProjects fetches all projects.
func (c *APIClient) ListProjects() ([]Project, error) {
	var projects []Project
	if err := c.doJSON(http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project. Name must be non-empty; the backend
// assigns the id, so callers should refresh the list rather than insert locally.
func (c *APIClient) CreateProject(name, description string) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}{Name: name, Description: description}

	var project Project
	if err := c.doJSON(http.MethodPost, "/api/projects", payload, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject deletes a project and all its server-side resources.
func (c *APIClient) DeleteProject(projectID string) error {
	return c.doJSON(http.MethodDelete, "/api/projects/"+url.PathEscape(projectID), nil, nil)
}

// ListDocuments fetches the documents belonging to a project.
func (c *APIClient) ListDocuments(projectID string) ([]Document, error) {
	var docs []Document
	if err := c.doJSON(http.MethodGet, "/api/documents/project/"+url.PathEscape(projectID), nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument uploads a single file as multipart form data. Callers with
// multiple files must call this once per file; the endpoint accepts exactly one.
func (c *APIClient) UploadDocument(projectID, path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	uploadURL := buildServerURL(c.BaseURL, "/api/documents/upload?project_id="+url.QueryEscape(projectID))
	req, err := http.NewRequest(http.MethodPost, uploadURL, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if readErr != nil {
			return nil, fmt.Errorf("server returned %d and body read failed: %v", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, prettyServerError(resp, body))
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	return &doc, nil
}

// DeleteDocument removes a document by id.
func (c *APIClient) DeleteDocument(documentID string) error {
	return c.doJSON(http.MethodDelete, "/api/documents/"+url.PathEscape(documentID), nil, nil)
}

// SendQuery posts a chat question scoped to a project's documents.
func (c *APIClient) SendQuery(req ChatQueryRequest) (*ChatQueryResponse, error) {
	if req.MaxChunks <= 0 {
		req.MaxChunks = defaultMaxChunks
	}
	var resp ChatQueryResponse
	if err := c.doJSON(http.MethodPost, "/api/chat/query", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success && resp.Error != "" {
		return nil, fmt.Errorf("chat query failed: %s", resp.Error)
	}
	return &resp, nil
}

// FetchHistory returns the conversations for a project, in backend order.
func (c *APIClient) FetchHistory(projectID string) ([]Conversation, error) {
	var conversations []Conversation
	if err := c.doJSON(http.MethodGet, "/api/chat/history/"+url.PathEscape(projectID), nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// DeleteConversation clears a conversation's server-side messages.
func (c *APIClient) DeleteConversation(conversationID string) error {
	return c.doJSON(http.MethodDelete, "/api/chat/history/"+url.PathEscape(conversationID), nil, nil)
}

// CheckHealth probes the backend with a short timeout.
func (c *APIClient) CheckHealth() (*HealthPayload, error) {
	req, err := http.NewRequest(http.MethodGet, buildServerURL(c.BaseURL, "/health"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := getHTTPClientWithTimeout(2 * time.Second).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, prettyServerError(resp, body))
	}
	var health HealthPayload
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	return &health, nil
}

// FlattenHistory concatenates every conversation's messages into one display
// list, tagging each with the project id. Conversations stay in backend order
// and each conversation's internal order is preserved; there is deliberately
// no cross-conversation re-sort.
func FlattenHistory(projectID string, conversations []Conversation) []Message {
	var out []Message
	for _, conv := range conversations {
		for _, msg := range conv.Messages {
			msg.ProjectID = projectID
			out = append(out, msg)
		}
	}
	return out
}
