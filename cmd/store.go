package cmd

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the root view state: nothing selected, fetches in flight, or ready.
type Phase int

const (
	PhaseNoProject Phase = iota
	PhaseLoading
	PhaseReady
)

// Store is the single owner of client-side state. All mutation is synchronous;
// network results re-enter through the Apply* methods, which drop results
// tagged with a project id that no longer matches the current selection.
type Store struct {
	projects  []Project
	selected  string
	documents []Document
	messages  []Message

	docsLoading    bool
	historyLoading bool
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Projects() []Project   { return s.projects }
func (s *Store) Selected() string      { return s.selected }
func (s *Store) Documents() []Document { return s.documents }
func (s *Store) Messages() []Message   { return s.messages }

func (s *Store) Phase() Phase {
	switch {
	case s.selected == "":
		return PhaseNoProject
	case s.docsLoading || s.historyLoading:
		return PhaseLoading
	default:
		return PhaseReady
	}
}

// SetProjects replaces the project list, e.g. after a list fetch or a
// post-create refresh.
func (s *Store) SetProjects(projects []Project) {
	s.projects = projects
}

// FindProject resolves a project by id or, failing that, by exact name.
func (s *Store) FindProject(idOrName string) *Project {
	for i := range s.projects {
		if s.projects[i].ID == idOrName {
			return &s.projects[i]
		}
	}
	for i := range s.projects {
		if s.projects[i].Name == idOrName {
			return &s.projects[i]
		}
	}
	return nil
}

// SelectProject switches the selection and resets the per-project slices.
// The caller dispatches the documents and history fetches; both must carry
// the project id returned here so stale completions can be discarded.
func (s *Store) SelectProject(projectID string) {
	s.selected = projectID
	s.documents = nil
	s.messages = nil
	s.docsLoading = true
	s.historyLoading = true
}

// ClearSelection returns the store to the no-project state.
func (s *Store) ClearSelection() {
	s.selected = ""
	s.documents = nil
	s.messages = nil
	s.docsLoading = false
	s.historyLoading = false
}

// ApplyDocuments merges a documents fetch result. Returns false when the
// result was dispatched for a project that is no longer selected.
func (s *Store) ApplyDocuments(projectID string, docs []Document) bool {
	if projectID != s.selected {
		logDebug("discarding stale documents fetch for project " + projectID)
		return false
	}
	s.documents = docs
	s.docsLoading = false
	return true
}

// ApplyHistory merges a history fetch result, subject to the same tag check.
func (s *Store) ApplyHistory(projectID string, messages []Message) bool {
	if projectID != s.selected {
		logDebug("discarding stale history fetch for project " + projectID)
		return false
	}
	s.messages = messages
	s.historyLoading = false
	return true
}

// FetchFailed clears the loading flag for a failed fetch so the view settles
// into ready-with-partial-data rather than spinning forever.
func (s *Store) FetchFailed(projectID string, history bool) {
	if projectID != s.selected {
		return
	}
	if history {
		s.historyLoading = false
	} else {
		s.docsLoading = false
	}
}

// RemoveProject removes a project and cascades to its documents and messages.
// The removal is optimistic: it happens regardless of the backend call's
// outcome. Deleting the selected project resets the selection.
func (s *Store) RemoveProject(projectID string) {
	kept := s.projects[:0]
	for _, p := range s.projects {
		if p.ID != projectID {
			kept = append(kept, p)
		}
	}
	s.projects = kept

	keptDocs := s.documents[:0]
	for _, d := range s.documents {
		if d.ProjectID != projectID {
			keptDocs = append(keptDocs, d)
		}
	}
	s.documents = keptDocs

	keptMsgs := s.messages[:0]
	for _, m := range s.messages {
		if m.ProjectID != projectID {
			keptMsgs = append(keptMsgs, m)
		}
	}
	s.messages = keptMsgs

	if s.selected == projectID {
		s.ClearSelection()
	}
}

// BeginUpload inserts a provisional document with a local uuid and
// "processing" status. One provisional record per file, one upload request
// per file — a multi-file upload never collapses into a single request.
func (s *Store) BeginUpload(projectID, filename, fileType string, size int64) Document {
	doc := Document{
		ID:         "local_" + uuid.New().String(),
		ProjectID:  projectID,
		Filename:   filename,
		FileType:   fileType,
		UploadedAt: time.Now(),
		Size:       size,
		Status:     StatusProcessing,
	}
	s.documents = append(s.documents, doc)
	return doc
}

// ResolveUpload replaces a provisional record with the backend-assigned one.
func (s *Store) ResolveUpload(provisionalID string, doc Document) {
	for i := range s.documents {
		if s.documents[i].ID == provisionalID {
			s.documents[i] = doc
			return
		}
	}
	// Provisional record already gone (e.g. project switched); keep the
	// confirmed document only if it belongs to the current selection.
	if doc.ProjectID == s.selected {
		s.documents = append(s.documents, doc)
	}
}

// FailUpload marks a provisional record as errored instead of silently
// dropping it, so the failure stays visible.
func (s *Store) FailUpload(provisionalID string, reason string) {
	for i := range s.documents {
		if s.documents[i].ID == provisionalID {
			s.documents[i].Status = StatusError
			s.documents[i].ErrorMessage = reason
			return
		}
	}
}

// RemoveDocument removes a document from local state and decrements the
// owning project's file count.
func (s *Store) RemoveDocument(documentID string) {
	kept := s.documents[:0]
	for _, d := range s.documents {
		if d.ID != documentID {
			kept = append(kept, d)
		} else {
			for i := range s.projects {
				if s.projects[i].ID == d.ProjectID && s.projects[i].FileCount > 0 {
					s.projects[i].FileCount--
				}
			}
		}
	}
	s.documents = kept
}

// AppendUserMessage appends the user's question synchronously, before the
// network call resolves.
func (s *Store) AppendUserMessage(projectID, content string) Message {
	msg := Message{
		ID:        "local_" + uuid.New().String(),
		ProjectID: projectID,
		Role:      "user",
		Content:   content,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// AppendAssistantMessage appends the backend's answer, carrying its sources
// verbatim.
func (s *Store) AppendAssistantMessage(projectID string, resp *ChatQueryResponse) Message {
	msg := Message{
		ID:        resp.ConversationID + "_" + uuid.New().String(),
		ProjectID: projectID,
		Role:      "assistant",
		Content:   resp.Response,
		Timestamp: time.Now(),
		Sources:   resp.Sources,
	}
	s.messages = append(s.messages, msg)
	return msg
}

// AppendNotice appends a local client-role message (errors, status changes).
// Notices are display-only and never sent to the server.
func (s *Store) AppendNotice(content string) Message {
	msg := Message{
		ID:        "local_" + uuid.New().String(),
		ProjectID: s.selected,
		Role:      "client",
		Content:   content,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// LastSources returns the sources of the most recent assistant message that
// has any, or nil.
func (s *Store) LastSources() []Source {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == "assistant" && len(s.messages[i].Sources) > 0 {
			return s.messages[i].Sources
		}
	}
	return nil
}
