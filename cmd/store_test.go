package cmd

import (
	"strings"
	"testing"
)

func TestPhaseTransitions(t *testing.T) {
	s := NewStore()
	if s.Phase() != PhaseNoProject {
		t.Fatalf("expected PhaseNoProject, got %v", s.Phase())
	}

	s.SelectProject("proj_1")
	if s.Phase() != PhaseLoading {
		t.Fatalf("expected PhaseLoading after select, got %v", s.Phase())
	}

	// One fetch landing is not enough
	s.ApplyDocuments("proj_1", nil)
	if s.Phase() != PhaseLoading {
		t.Fatalf("expected PhaseLoading with history still in flight, got %v", s.Phase())
	}

	s.ApplyHistory("proj_1", nil)
	if s.Phase() != PhaseReady {
		t.Fatalf("expected PhaseReady after both fetches, got %v", s.Phase())
	}

	s.ClearSelection()
	if s.Phase() != PhaseNoProject {
		t.Fatalf("expected PhaseNoProject after clear, got %v", s.Phase())
	}
}

func TestPhaseReadyAfterFailedFetch(t *testing.T) {
	s := NewStore()
	s.SelectProject("proj_1")
	s.ApplyDocuments("proj_1", nil)
	s.FetchFailed("proj_1", true)
	if s.Phase() != PhaseReady {
		t.Fatalf("failed fetch should still settle the view, got %v", s.Phase())
	}
}

func TestStaleFetchDiscarded(t *testing.T) {
	s := NewStore()
	s.SetProjects([]Project{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}})

	s.SelectProject("a")
	// User switches before the fetches for "a" resolve
	s.SelectProject("b")

	staleDocs := []Document{{ID: "doc_1", ProjectID: "a", Filename: "old.pdf"}}
	if s.ApplyDocuments("a", staleDocs) {
		t.Fatal("documents tagged with a stale project id must be discarded")
	}
	if len(s.Documents()) != 0 {
		t.Fatalf("stale documents leaked into state: %v", s.Documents())
	}

	staleMsgs := []Message{{Role: "user", Content: "old question", ProjectID: "a"}}
	if s.ApplyHistory("a", staleMsgs) {
		t.Fatal("history tagged with a stale project id must be discarded")
	}
	if len(s.Messages()) != 0 {
		t.Fatalf("stale messages leaked into state: %v", s.Messages())
	}

	// The fetch for the current selection still applies
	freshDocs := []Document{{ID: "doc_2", ProjectID: "b", Filename: "new.pdf"}}
	if !s.ApplyDocuments("b", freshDocs) {
		t.Fatal("fresh documents were rejected")
	}
	if len(s.Documents()) != 1 || s.Documents()[0].ID != "doc_2" {
		t.Fatalf("unexpected documents: %v", s.Documents())
	}
}

func TestSelectProjectClearsPreviousState(t *testing.T) {
	s := NewStore()
	s.SelectProject("a")
	s.ApplyDocuments("a", []Document{{ID: "d1", ProjectID: "a"}})
	s.ApplyHistory("a", []Message{{Role: "user", Content: "hi", ProjectID: "a"}})

	s.SelectProject("b")
	if len(s.Documents()) != 0 || len(s.Messages()) != 0 {
		t.Fatal("switching projects must clear documents and messages")
	}
}

func TestRemoveProjectCascades(t *testing.T) {
	s := NewStore()
	s.SetProjects([]Project{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}})
	s.SelectProject("a")
	s.ApplyDocuments("a", []Document{
		{ID: "d1", ProjectID: "a"},
		{ID: "d2", ProjectID: "a"},
	})
	s.ApplyHistory("a", []Message{
		{ID: "m1", ProjectID: "a", Role: "user", Content: "q"},
		{ID: "m2", ProjectID: "a", Role: "assistant", Content: "ans"},
	})

	s.RemoveProject("a")

	if len(s.Projects()) != 1 || s.Projects()[0].ID != "b" {
		t.Fatalf("expected only project b to remain, got %v", s.Projects())
	}
	if len(s.Documents()) != 0 {
		t.Fatalf("documents of deleted project must be removed, got %v", s.Documents())
	}
	if len(s.Messages()) != 0 {
		t.Fatalf("messages of deleted project must be removed, got %v", s.Messages())
	}
	if s.Selected() != "" {
		t.Fatalf("deleting the selected project must reset the selection, got %q", s.Selected())
	}
}

func TestRemoveUnselectedProjectKeepsState(t *testing.T) {
	s := NewStore()
	s.SetProjects([]Project{{ID: "a"}, {ID: "b"}})
	s.SelectProject("b")
	s.ApplyDocuments("b", []Document{{ID: "d1", ProjectID: "b"}})
	s.ApplyHistory("b", nil)

	s.RemoveProject("a")
	if s.Selected() != "b" {
		t.Fatalf("selection must survive deleting another project, got %q", s.Selected())
	}
	if len(s.Documents()) != 1 {
		t.Fatalf("unrelated documents must survive, got %v", s.Documents())
	}
}

func TestUserMessageAppendedBeforeResponse(t *testing.T) {
	s := NewStore()
	s.SelectProject("a")
	s.ApplyDocuments("a", nil)
	s.ApplyHistory("a", nil)

	s.AppendUserMessage("a", "what is the refund policy?")
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Role != "user" {
		t.Fatalf("user message must appear immediately, got %v", msgs)
	}

	resp := &ChatQueryResponse{
		Success:        true,
		Response:       "Refunds within 30 days.",
		ConversationID: "conv_1",
		Sources: []Source{
			{DocumentID: "d1", Filename: "policy.pdf", RelevanceScore: 0.92},
		},
	}
	s.AppendAssistantMessage("a", resp)

	msgs = s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	last := msgs[1]
	if last.Role != "assistant" || last.Content != "Refunds within 30 days." {
		t.Fatalf("unexpected assistant message: %+v", last)
	}
	if len(last.Sources) != 1 || last.Sources[0].Filename != "policy.pdf" {
		t.Fatalf("sources must be carried verbatim, got %v", last.Sources)
	}
}

func TestNoticeIsLocalOnly(t *testing.T) {
	s := NewStore()
	s.SelectProject("a")
	msg := s.AppendNotice("Query failed: timeout")
	if msg.Role != "client" {
		t.Fatalf("notices must use the client role, got %q", msg.Role)
	}
	if !strings.HasPrefix(msg.ID, "local_") {
		t.Fatalf("notices must carry a local id, got %q", msg.ID)
	}
}

func TestUploadLifecycle(t *testing.T) {
	s := NewStore()
	s.SetProjects([]Project{{ID: "a", FileCount: 0}})
	s.SelectProject("a")
	s.ApplyDocuments("a", nil)

	provisional := s.BeginUpload("a", "report.pdf", "pdf", 2048)
	if !strings.HasPrefix(provisional.ID, "local_") {
		t.Fatalf("provisional records must carry a local id, got %q", provisional.ID)
	}
	if provisional.Status != StatusProcessing {
		t.Fatalf("provisional records start as processing, got %q", provisional.Status)
	}

	confirmed := Document{ID: "doc_9", ProjectID: "a", Filename: "report.pdf", Status: StatusProcessing}
	s.ResolveUpload(provisional.ID, confirmed)

	docs := s.Documents()
	if len(docs) != 1 || docs[0].ID != "doc_9" {
		t.Fatalf("provisional record must be replaced by the confirmed one, got %v", docs)
	}
}

func TestFailedUploadStaysVisible(t *testing.T) {
	s := NewStore()
	s.SelectProject("a")
	s.ApplyDocuments("a", nil)

	provisional := s.BeginUpload("a", "broken.docx", "docx", 100)
	s.FailUpload(provisional.ID, "server returned 500")

	docs := s.Documents()
	if len(docs) != 1 {
		t.Fatalf("failed uploads must not be dropped, got %v", docs)
	}
	if docs[0].Status != StatusError || docs[0].ErrorMessage != "server returned 500" {
		t.Fatalf("failed upload must be marked errored with a reason, got %+v", docs[0])
	}
}

func TestResolveUploadAfterProjectSwitch(t *testing.T) {
	s := NewStore()
	s.SelectProject("a")
	provisional := s.BeginUpload("a", "report.pdf", "pdf", 10)

	// Switching clears the provisional record
	s.SelectProject("b")

	// The confirmation for project a must not reappear under project b
	s.ResolveUpload(provisional.ID, Document{ID: "doc_1", ProjectID: "a"})
	if len(s.Documents()) != 0 {
		t.Fatalf("confirmed upload for a switched-away project leaked in: %v", s.Documents())
	}

	// But a confirmation belonging to the current selection is kept
	s.ResolveUpload("gone", Document{ID: "doc_2", ProjectID: "b"})
	if len(s.Documents()) != 1 || s.Documents()[0].ID != "doc_2" {
		t.Fatalf("confirmed upload for the current project was lost: %v", s.Documents())
	}
}

func TestRemoveDocumentDecrementsFileCount(t *testing.T) {
	s := NewStore()
	s.SetProjects([]Project{{ID: "a", FileCount: 2}})
	s.SelectProject("a")
	s.ApplyDocuments("a", []Document{
		{ID: "d1", ProjectID: "a"},
		{ID: "d2", ProjectID: "a"},
	})

	s.RemoveDocument("d1")
	if len(s.Documents()) != 1 || s.Documents()[0].ID != "d2" {
		t.Fatalf("unexpected documents after delete: %v", s.Documents())
	}
	if s.Projects()[0].FileCount != 1 {
		t.Fatalf("file count must drop to 1, got %d", s.Projects()[0].FileCount)
	}

	// Never goes negative
	s.RemoveDocument("d2")
	s.RemoveDocument("d2")
	if s.Projects()[0].FileCount != 0 {
		t.Fatalf("file count must not go negative, got %d", s.Projects()[0].FileCount)
	}
}

func TestCreateThenDeleteRestoresList(t *testing.T) {
	s := NewStore()
	prior := []Project{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}
	s.SetProjects(prior)

	// A create lands through a list refresh with the new project included
	s.SetProjects([]Project{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}, {ID: "c", Name: "Gamma"}})
	s.RemoveProject("c")

	got := s.Projects()
	if len(got) != len(prior) {
		t.Fatalf("expected %d projects, got %d", len(prior), len(got))
	}
	for i := range prior {
		if got[i].ID != prior[i].ID {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, prior[i].ID)
		}
	}
}

func TestFindProjectByIDThenName(t *testing.T) {
	s := NewStore()
	s.SetProjects([]Project{
		{ID: "proj_1", Name: "Contracts"},
		{ID: "Contracts", Name: "Shadow"},
	})

	// ID match wins over name match
	if p := s.FindProject("Contracts"); p == nil || p.Name != "Shadow" {
		t.Fatalf("expected id match to win, got %+v", p)
	}
	if p := s.FindProject("proj_1"); p == nil || p.Name != "Contracts" {
		t.Fatalf("lookup by id failed, got %+v", p)
	}
	if p := s.FindProject("nope"); p != nil {
		t.Fatalf("expected nil for unknown project, got %+v", p)
	}
}

func TestLastSources(t *testing.T) {
	s := NewStore()
	s.SelectProject("a")

	if got := s.LastSources(); got != nil {
		t.Fatalf("expected nil with no messages, got %v", got)
	}

	s.AppendAssistantMessage("a", &ChatQueryResponse{
		Response: "first",
		Sources:  []Source{{Filename: "one.pdf"}},
	})
	s.AppendAssistantMessage("a", &ChatQueryResponse{Response: "no sources"})
	s.AppendNotice("something local")

	got := s.LastSources()
	if len(got) != 1 || got[0].Filename != "one.pdf" {
		t.Fatalf("expected sources from the last answer that has any, got %v", got)
	}
}
