package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ragbot-cli/cmd/config"
	uitk "ragbot-cli/internal/tui"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

var (
	userPrompt      = "🧑 You:"
	assistantPrompt = "🤖 Assistant:"
	noticePrompt    = "·"
)

const gap = "\n\n"

// runChatSessionTUI starts the Bubble Tea TUI for chat.
func runChatSessionTUI(clientCfg *config.ClientConfig) {
	m := newChatModel(clientCfg)
	p := tea.NewProgram(m)

	// Enable TUI mode for output routing
	SetTUIMode(p)
	defer ClearTUIMode()

	// Live-reload the server URL and query defaults while the session runs
	stop, err := StartConfigWatcher(getEffectiveCWD(), func(cfg *config.RagbotConfig) {
		p.Send(configReloadedMsg{cfg: cfg})
	})
	if err == nil {
		defer stop()
	} else {
		logDebug(fmt.Sprintf("config watcher not started: %v", err))
	}

	if _, err := p.Run(); err != nil {
		OutputError("Error running TUI: %v", err)
	}
}

type chatModel struct {
	store *Store
	api   *APIClient
	cfg   *config.ClientConfig

	spin     spinner.Model
	viewport viewport.Model
	textarea textarea.Model

	thinking   bool
	history    []string
	histIndex  int
	width      int
	termHeight int
	status     string
	err        error

	serverHealth   *HealthPayload
	conversationID string

	// Overlay panel and toast
	sourcesPanel uitk.SourcesPanelModel
	toast        uitk.ToastModel
	panelActive  bool
}

type projectsLoadedMsg struct {
	projects []Project
	err      error
}

// documentsFetchedMsg and historyFetchedMsg carry the project id they were
// dispatched for; the store drops them when the selection has moved on.
type documentsFetchedMsg struct {
	projectID string
	docs      []Document
	err       error
}

type historyFetchedMsg struct {
	projectID string
	messages  []Message
	err       error
}

type queryResultMsg struct {
	projectID string
	resp      *ChatQueryResponse
	err       error
}

type uploadResultMsg struct {
	projectID     string
	provisionalID string
	doc           *Document
	err           error
}

type projectDeletedMsg struct {
	projectID string
	err       error
}

type documentDeletedMsg struct {
	documentID string
	err        error
}

type serverHealthMsg struct{ health *HealthPayload }

type configReloadedMsg struct{ cfg *config.RagbotConfig }

func newChatModel(clientCfg *config.ClientConfig) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.Focus()

	ta.Prompt = "> "

	ta.SetWidth(30)
	ta.SetHeight(1)

	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(30, 5)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	width, _, _ := term.GetSize(uintptr(os.Stdout.Fd()))

	store := NewStore()
	api := newAPIClient(clientCfg.URL)

	m := chatModel{
		store:        store,
		api:          api,
		cfg:          clientCfg,
		spin:         s,
		viewport:     vp,
		textarea:     ta,
		width:        width,
		sourcesPanel: uitk.NewSourcesPanelModel(),
		toast:        uitk.NewToastModel(),
	}

	store.AppendNotice("Ask a question or type '/help' for commands.")
	if clientCfg.Project == "" {
		store.AppendNotice("No project selected. Use '/projects' to list and '/project <id>' to select one.")
	}
	m.viewport.SetContent(renderChatContent(m))
	return m
}

func (m chatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, fetchProjectsCmd(m.api), checkHealthCmd(m.api)}
	if m.cfg.Project != "" {
		// Select the configured project: documents and history are fetched
		// independently and may land in either order.
		m.store.SelectProject(m.cfg.Project)
		cmds = append(cmds,
			fetchDocumentsCmd(m.api, m.cfg.Project),
			fetchHistoryCmd(m.api, m.cfg.Project))
	}
	return tea.Batch(cmds...)
}

func fetchProjectsCmd(api *APIClient) tea.Cmd {
	return func() tea.Msg {
		projects, err := api.ListProjects()
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

func fetchDocumentsCmd(api *APIClient, projectID string) tea.Cmd {
	return func() tea.Msg {
		docs, err := api.ListDocuments(projectID)
		return documentsFetchedMsg{projectID: projectID, docs: docs, err: err}
	}
}

func fetchHistoryCmd(api *APIClient, projectID string) tea.Cmd {
	return func() tea.Msg {
		conversations, err := api.FetchHistory(projectID)
		if err != nil {
			return historyFetchedMsg{projectID: projectID, err: err}
		}
		return historyFetchedMsg{projectID: projectID, messages: FlattenHistory(projectID, conversations)}
	}
}

func sendQueryCmd(api *APIClient, req ChatQueryRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := api.SendQuery(req)
		return queryResultMsg{projectID: req.ProjectID, resp: resp, err: err}
	}
}

func uploadFileCmd(api *APIClient, projectID, provisionalID, path string) tea.Cmd {
	return func() tea.Msg {
		doc, err := api.UploadDocument(projectID, path)
		return uploadResultMsg{projectID: projectID, provisionalID: provisionalID, doc: doc, err: err}
	}
}

func checkHealthCmd(api *APIClient) tea.Cmd {
	return func() tea.Msg {
		health, _ := api.CheckHealth()
		return serverHealthMsg{health: health}
	}
}

// selectProject switches the active project and dispatches the two
// independent fetches tagged with the new project id.
func (m *chatModel) selectProject(projectID string) tea.Cmd {
	m.store.SelectProject(projectID)
	m.conversationID = conversationForProject(projectID)
	m.history = nil
	m.histIndex = 0
	return tea.Batch(
		fetchDocumentsCmd(m.api, projectID),
		fetchHistoryCmd(m.api, projectID),
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		cmd   tea.Cmd
		cmds  []tea.Cmd
	)

	// Route messages to the sources panel (it ignores most when inactive)
	panelWasActive := m.sourcesPanel.IsActive()
	m.sourcesPanel, cmd = m.sourcesPanel.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	// Toggle textarea focus based on overlay activity and lock input when active
	if m.sourcesPanel.IsActive() && !m.panelActive {
		m.textarea.Blur()
		m.panelActive = true
	}
	if !m.sourcesPanel.IsActive() && m.panelActive {
		m.textarea.Focus()
		m.panelActive = false
	}

	// Only update textarea when the overlay is not active. The key that just
	// closed the overlay must not leak into the input either.
	if !m.sourcesPanel.IsActive() && !panelWasActive {
		m.textarea, tiCmd = m.textarea.Update(msg)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	m.toast, cmd = m.toast.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	// Forward all messages to the spinner so it processes its own TickMsgs
	m.spin, cmd = m.spin.Update(msg)

	cmds = append(cmds, vpCmd, tiCmd, cmd)

	headerHeight := lipgloss.Height(renderInfoBar(m))
	footerHeight := lipgloss.Height(renderChatInput(m))

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Prevent negative viewport height that causes slice bounds panic
		newHeight := msg.Height - footerHeight - headerHeight
		if newHeight < 1 {
			newHeight = 1
		}

		m.viewport.Width = msg.Width
		m.viewport.Height = newHeight

		newWidth := msg.Width - 2
		if newWidth < 10 {
			newWidth = 10
		}
		m.textarea.SetWidth(newWidth)
		m.width = msg.Width
		m.termHeight = msg.Height

	case projectsLoadedMsg:
		if msg.err != nil {
			logDebug(fmt.Sprintf("failed to load projects: %v", msg.err))
			m.store.AppendNotice(fmt.Sprintf("⚠️  Could not load projects: %v", msg.err))
		} else {
			m.store.SetProjects(msg.projects)
		}
		m.refreshViewportBottom()

	case documentsFetchedMsg:
		if msg.err != nil {
			m.store.FetchFailed(msg.projectID, false)
			logDebug(fmt.Sprintf("documents fetch failed for %s: %v", msg.projectID, msg.err))
			break
		}
		m.store.ApplyDocuments(msg.projectID, msg.docs)

	case historyFetchedMsg:
		if msg.err != nil {
			m.store.FetchFailed(msg.projectID, true)
			logDebug(fmt.Sprintf("history fetch failed for %s: %v", msg.projectID, msg.err))
			break
		}
		if m.store.ApplyHistory(msg.projectID, msg.messages) {
			for _, hm := range msg.messages {
				if hm.Role == "user" {
					m.history = append(m.history, hm.Content)
				}
			}
			m.histIndex = len(m.history)
			m.refreshViewportBottom()
		}

	case queryResultMsg:
		m.thinking = false
		if msg.projectID != m.store.Selected() {
			logDebug("discarding query result for switched-away project " + msg.projectID)
			break
		}
		if msg.err != nil {
			// The user message stays in the thread; surface the failure as a
			// local notice instead of failing silently.
			m.store.AppendNotice(fmt.Sprintf("⚠️  Query failed: %v", msg.err))
		} else {
			m.store.AppendAssistantMessage(msg.projectID, msg.resp)
			if msg.resp.ConversationID != "" {
				m.conversationID = msg.resp.ConversationID
				if err := writeConversationContext(msg.projectID, msg.resp.ConversationID); err != nil {
					logDebug(fmt.Sprintf("Failed to write session context: %v", err))
				}
			}
		}
		m.refreshViewportBottom()

	case uploadResultMsg:
		if msg.err != nil {
			m.store.FailUpload(msg.provisionalID, msg.err.Error())
			m.store.AppendNotice(fmt.Sprintf("⚠️  Upload failed: %v", msg.err))
			m.refreshViewportBottom()
			break
		}
		m.store.ResolveUpload(msg.provisionalID, *msg.doc)
		cmds = append(cmds, func() tea.Msg {
			return uitk.ShowToastMsg{Message: fmt.Sprintf("Uploaded %s", msg.doc.Filename)}
		})

	case projectDeletedMsg:
		// The local cascade already happened; only failures need surfacing.
		if msg.err != nil {
			m.store.AppendNotice(fmt.Sprintf("⚠️  Server-side delete of project %s failed: %v", msg.projectID, msg.err))
			m.refreshViewportBottom()
		}

	case documentDeletedMsg:
		if msg.err != nil {
			m.store.AppendNotice(fmt.Sprintf("⚠️  Server-side delete of document %s failed: %v", msg.documentID, msg.err))
			m.refreshViewportBottom()
		}

	case serverHealthMsg:
		m.serverHealth = msg.health
		if msg.health == nil {
			m.store.AppendNotice("⚠️  Server is unreachable. Check --server-url or RAGBOT_SERVER_URL.")
			m.refreshViewportBottom()
		}

	case configReloadedMsg:
		if msg.cfg.ServerURL != "" && msg.cfg.ServerURL != m.cfg.URL {
			m.cfg.URL = msg.cfg.ServerURL
			m.api = newAPIClient(m.cfg.URL)
			m.store.AppendNotice(fmt.Sprintf("Config reloaded: server is now %s", m.cfg.URL))
			m.refreshViewportBottom()
		}
		if msg.cfg.MaxChunks > 0 {
			m.cfg.MaxChunks = msg.cfg.MaxChunks
		}

	case TUIMessageMsg:
		m.store.AppendNotice(FormatMessage(msg.Message))
		m.refreshViewportBottom()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.status = "👋 Goodbye!"
			return m, tea.Quit

		case "ctrl+s":
			// Toggle sources panel for the last answer
			if m.sourcesPanel.IsActive() {
				return m, tea.Batch(cmds...)
			}
			m.openSourcesPanel()
			return m, nil

		case "esc":
			// Overlay handles its own ESC
			return m, tea.Batch(cmds...)

		case "up":
			if m.sourcesPanel.IsActive() {
				return m, tea.Batch(cmds...)
			}
			if m.histIndex > 0 {
				m.histIndex--
				m.textarea.SetValue(m.history[m.histIndex])
				m.textarea.CursorEnd()
			}

		case "down":
			if m.sourcesPanel.IsActive() {
				return m, tea.Batch(cmds...)
			}
			if m.histIndex < len(m.history)-1 {
				m.histIndex++
				m.textarea.SetValue(m.history[m.histIndex])
				m.textarea.CursorEnd()
			} else {
				m.histIndex = len(m.history)
				m.textarea.SetValue("")
			}

		case "enter":
			if m.sourcesPanel.IsActive() {
				return m, tea.Batch(cmds...)
			}
			m.err = nil
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" || m.thinking {
				break
			}

			if strings.HasPrefix(input, "/") {
				slashCmd := m.handleSlashCommand(input)
				return m, slashCmd
			}

			if m.store.Selected() == "" {
				m.store.AppendNotice("No project selected. Use '/projects' to list and '/project <id>' to select one.")
				m.textarea.SetValue("")
				m.refreshViewportBottom()
				return m, nil
			}

			m.history = append(m.history, input)
			m.histIndex = len(m.history)
			m.store.AppendUserMessage(m.store.Selected(), input)
			m.textarea.SetValue("")
			m.thinking = true
			m.refreshViewportBottom()

			cmds = append(cmds, sendQueryCmd(m.api, ChatQueryRequest{
				ProjectID:      m.store.Selected(),
				Query:          input,
				ConversationID: m.conversationID,
				IncludeSources: m.cfg.IncludeSources,
				MaxChunks:      m.cfg.MaxChunks,
			}))
		}
	}

	m.viewport.SetContent(renderChatContent(m))
	return m, tea.Batch(cmds...)
}

// handleSlashCommand processes /commands; it always clears the input.
func (m *chatModel) handleSlashCommand(input string) tea.Cmd {
	defer func() {
		m.textarea.SetValue("")
		m.refreshViewportBottom()
	}()

	fields := strings.Fields(input)
	switch fields[0] {
	case "/help":
		m.store.AppendNotice("Commands:\n" +
			"  /help - Show this help\n" +
			"  /projects - List projects\n" +
			"  /project <id|name> - Select a project\n" +
			"  /docs - List the selected project's documents\n" +
			"  /upload <path>... - Upload files to the selected project\n" +
			"  /rm-doc <id> - Delete a document from the selected project\n" +
			"  /rm-project - Delete the selected project and all its data\n" +
			"  /sources - Show sources for the last answer\n" +
			"  /clear - Start a new conversation\n" +
			"  /exit - Exit\n\n" +
			"Hotkeys:\n" +
			"  Ctrl+S - Toggle sources panel")

	case "/projects":
		projects := m.store.Projects()
		if len(projects) == 0 {
			m.store.AppendNotice("No projects found. Create one with 'ragbot projects create'.")
			return fetchProjectsCmd(m.api)
		}
		var b strings.Builder
		b.WriteString("Projects:")
		for _, p := range projects {
			marker := ""
			if p.ID == m.store.Selected() {
				marker = " (current)"
			}
			b.WriteString(fmt.Sprintf("\n  • %s - %s (%d files)%s", p.ID, p.Name, p.FileCount, marker))
		}
		b.WriteString("\n\nUsage: /project <id|name>")
		m.store.AppendNotice(b.String())

	case "/project":
		if len(fields) < 2 {
			m.store.AppendNotice("Usage: /project <id|name>")
			return nil
		}
		arg := strings.Join(fields[1:], " ")
		project := m.store.FindProject(arg)
		if project == nil {
			m.store.AppendNotice(fmt.Sprintf("Unknown project '%s'. Type '/projects' to see available projects.", arg))
			return nil
		}
		if project.ID == m.store.Selected() {
			m.store.AppendNotice(fmt.Sprintf("Already on project '%s'", project.Name))
			return nil
		}
		cmd := m.selectProject(project.ID)
		m.store.AppendNotice(fmt.Sprintf("🎯 Switched to project '%s'", project.Name))
		return cmd

	case "/docs":
		if m.store.Selected() == "" {
			m.store.AppendNotice("No project selected.")
			return nil
		}
		docs := m.store.Documents()
		if len(docs) == 0 {
			m.store.AppendNotice("No documents in this project. Use '/upload <path>' to add some.")
			return nil
		}
		var b strings.Builder
		b.WriteString("Documents:")
		for _, d := range docs {
			b.WriteString(fmt.Sprintf("\n  • %s (%s, %s)", d.Filename, formatBytes(d.Size), d.Status))
		}
		m.store.AppendNotice(b.String())

	case "/upload":
		if m.store.Selected() == "" {
			m.store.AppendNotice("No project selected.")
			return nil
		}
		if len(fields) < 2 {
			m.store.AppendNotice("Usage: /upload <path>...")
			return nil
		}
		// One provisional record and one request per file.
		var uploadCmds []tea.Cmd
		for _, path := range fields[1:] {
			if !isAllowedFileType(path) {
				m.store.AppendNotice(fmt.Sprintf("⚠️  %s: file type not allowed (allowed: %s)",
					path, strings.Join(AllowedFileTypes, ", ")))
				continue
			}
			size := int64(0)
			if info, err := os.Stat(path); err == nil {
				size = info.Size()
			}
			fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			provisional := m.store.BeginUpload(m.store.Selected(), filepath.Base(path), fileType, size)
			uploadCmds = append(uploadCmds, uploadFileCmd(m.api, m.store.Selected(), provisional.ID, path))
		}
		if len(uploadCmds) == 0 {
			return nil
		}
		m.store.AppendNotice(fmt.Sprintf("📤 Uploading %d file(s)...", len(uploadCmds)))
		return tea.Batch(uploadCmds...)

	case "/rm-project":
		projectID := m.store.Selected()
		if projectID == "" {
			m.store.AppendNotice("No project selected.")
			return nil
		}
		name := projectID
		if p := m.store.FindProject(projectID); p != nil {
			name = p.Name
		}
		// Optimistic cascade: the project, its documents and its messages
		// leave local state immediately; the server call follows.
		m.store.RemoveProject(projectID)
		m.conversationID = ""
		_ = clearConversationContext(projectID)
		m.store.AppendNotice(fmt.Sprintf("🗑️  Deleted project '%s'. Use '/projects' to pick another.", name))
		api := m.api
		return func() tea.Msg {
			return projectDeletedMsg{projectID: projectID, err: api.DeleteProject(projectID)}
		}

	case "/rm-doc":
		if m.store.Selected() == "" {
			m.store.AppendNotice("No project selected.")
			return nil
		}
		if len(fields) != 2 {
			m.store.AppendNotice("Usage: /rm-doc <document-id> (ids are listed by /docs)")
			return nil
		}
		documentID := fields[1]
		found := false
		for _, d := range m.store.Documents() {
			if d.ID == documentID {
				found = true
				break
			}
		}
		if !found {
			m.store.AppendNotice(fmt.Sprintf("Unknown document '%s'. Type '/docs' to see document ids.", documentID))
			return nil
		}
		m.store.RemoveDocument(documentID)
		m.store.AppendNotice(fmt.Sprintf("🗑️  Deleted document %s", documentID))
		api := m.api
		return func() tea.Msg {
			return documentDeletedMsg{documentID: documentID, err: api.DeleteDocument(documentID)}
		}

	case "/sources":
		m.openSourcesPanel()

	case "/clear":
		projectID := m.store.Selected()
		if projectID == "" {
			m.store.AppendNotice("No project selected.")
			return nil
		}
		conversationID := m.conversationID
		m.conversationID = ""
		_ = clearConversationContext(projectID)
		m.store.ApplyHistory(projectID, nil)
		m.history = nil
		m.histIndex = 0
		m.store.AppendNotice("Conversation cleared. New conversation started.")
		if conversationID != "" {
			api := m.api
			return func() tea.Msg {
				if err := api.DeleteConversation(conversationID); err != nil {
					logDebug(fmt.Sprintf("failed to delete conversation %s: %v", conversationID, err))
				}
				return nil
			}
		}

	case "/exit", "/quit":
		m.status = "👋 Goodbye!"
		return tea.Quit

	default:
		m.store.AppendNotice(fmt.Sprintf("Unknown command '%s'. Type '/help' for available commands.", fields[0]))
	}
	return nil
}

func (m *chatModel) openSourcesPanel() {
	sources := m.store.LastSources()
	items := make([]uitk.SourceItem, 0, len(sources))
	for _, src := range sources {
		page := 0
		if src.PageNumber != nil {
			page = *src.PageNumber
		}
		items = append(items, uitk.SourceItem{
			Filename:   src.Filename,
			Excerpt:    src.Excerpt,
			PageNumber: page,
			Score:      src.RelevanceScore,
		})
	}
	title := "last answer"
	if p := m.store.FindProject(m.store.Selected()); p != nil {
		title = p.Name
	}
	m.sourcesPanel.Open(title, items)
	if m.termHeight > 0 {
		m.sourcesPanel, _ = m.sourcesPanel.Update(tea.WindowSizeMsg{Width: m.width, Height: m.termHeight})
	}
}

func (m *chatModel) refreshViewportBottom() {
	m.viewport.SetContent(renderChatContent(*m))
	m.viewport.GotoBottom()
}

func renderChatContent(m chatModel) string {
	var b strings.Builder

	wrapWidth := m.width - 4
	if wrapWidth < 20 {
		wrapWidth = 80
	}
	wrap := lipgloss.NewStyle().Width(wrapWidth)
	noticeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	for _, msg := range m.store.Messages() {
		switch msg.Role {
		case "user":
			b.WriteString(userPrompt + " " + msg.Content)
		case "assistant":
			b.WriteString(assistantPrompt + "\n" + wrap.Render(msg.Content))
			if len(msg.Sources) > 0 {
				b.WriteString("\n" + noticeStyle.Render(fmt.Sprintf("(%d sources — Ctrl+S to view)", len(msg.Sources))))
			}
		default:
			b.WriteString(noticeStyle.Render(noticePrompt + " " + msg.Content))
		}
		b.WriteString(gap)
	}

	if m.thinking {
		b.WriteString(m.spin.View() + " Thinking...")
		b.WriteString(gap)
	}

	return b.String()
}

func renderInfoBar(m chatModel) string {
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	server := m.cfg.URL
	health := "?"
	if m.serverHealth != nil {
		health = m.serverHealth.Status
	}

	project := "(no project)"
	if p := m.store.FindProject(m.store.Selected()); p != nil {
		project = fmt.Sprintf("%s · %d docs", p.Name, len(m.store.Documents()))
	} else if m.store.Selected() != "" {
		project = m.store.Selected()
	}

	phase := ""
	if m.store.Phase() == PhaseLoading {
		phase = " · loading"
	}

	return barStyle.Render(fmt.Sprintf("📡 %s (%s) · 📁 %s%s", server, health, project, phase))
}

func renderChatInput(m chatModel) string {
	return m.textarea.View()
}

func (m chatModel) View() string {
	if m.sourcesPanel.IsActive() {
		return m.sourcesPanel.View()
	}

	var b strings.Builder
	b.WriteString(renderInfoBar(m))
	b.WriteString("\n")
	if toast := m.toast.View(); toast != "" {
		b.WriteString(toast)
		b.WriteString("\n")
	}
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(renderChatInput(m))
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	return b.String()
}
