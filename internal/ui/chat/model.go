// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/studymate-tui/internal/api"
	"github.com/jeranaias/studymate-tui/internal/controller"
	"github.com/jeranaias/studymate-tui/internal/model"
	"github.com/jeranaias/studymate-tui/internal/storage"
	"github.com/jeranaias/studymate-tui/internal/store"
	"github.com/jeranaias/studymate-tui/internal/ui/styles"
)

// Deps are the collaborators the chat view talks to. The view reads state
// through store subscriptions and changes it only through the controller's
// producer methods; the client is used directly only for the secondary
// document commands that bypass the pipelines.
type Deps struct {
	Controller  *controller.Controller
	Store       *store.Store
	Client      *api.Client
	Transcripts *storage.TranscriptStore
	Theme       *styles.Theme
	Logger      *zap.Logger
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctrl        *controller.Controller
	store       *store.Store
	client      *api.Client
	transcripts *storage.TranscriptStore
	theme       *styles.Theme
	log         *zap.Logger

	width  int
	height int
	ready  bool

	// Mirrors of the store cells, refreshed by the watchers.
	messages []model.Message
	loading  bool
	errText  string
	rag      bool
	stats    *api.DocumentStats

	// Transient status line text, replaced by the next notice.
	notice string

	// Results of the last /search, shown below the conversation until the
	// next /search or /clear.
	searchResults *api.SearchResponse

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	msgCh     <-chan []model.Message
	loadingCh <-chan bool
	errCh     <-chan string
	ragCh     <-chan bool
	statsCh   <-chan *api.DocumentStats
	uploadCh  <-chan *store.UploadNotice
	unsub     []func()
}

// New creates the chat view and subscribes it to the store.
func New(deps Deps) Model {
	if deps.Theme == nil {
		deps.Theme = styles.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "궁금한 것을 물어봐! (/help 명령어 목록)"
	ti.Prompt = "> "
	ti.PromptStyle = deps.Theme.InputPrompt
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	m := Model{
		ctrl:        deps.Controller,
		store:       deps.Store,
		client:      deps.Client,
		transcripts: deps.Transcripts,
		theme:       deps.Theme,
		log:         deps.Logger.Named("ui"),

		input:   ti,
		spinner: sp,
	}

	// Subscribe before reading the initial values: a write landing in
	// between is then redelivered by the watcher instead of lost.
	var cancel func()
	m.msgCh, cancel = deps.Store.Messages.Subscribe()
	m.unsub = append(m.unsub, cancel)
	m.loadingCh, cancel = deps.Store.Loading.Subscribe()
	m.unsub = append(m.unsub, cancel)
	m.errCh, cancel = deps.Store.Err.Subscribe()
	m.unsub = append(m.unsub, cancel)
	m.ragCh, cancel = deps.Store.RagEnabled.Subscribe()
	m.unsub = append(m.unsub, cancel)
	m.statsCh, cancel = deps.Store.Stats.Subscribe()
	m.unsub = append(m.unsub, cancel)
	m.uploadCh, cancel = deps.Store.Upload.Subscribe()
	m.unsub = append(m.unsub, cancel)

	m.messages = deps.Store.Messages.Get()
	m.loading = deps.Store.Loading.Get()
	m.errText = deps.Store.Err.Get()
	m.rag = deps.Store.RagEnabled.Get()
	m.stats = deps.Store.Stats.Get()

	return m
}

// Init starts the blink, the spinner, and the six store watchers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.watchMessages(),
		m.watchLoading(),
		m.watchErr(),
		m.watchRag(),
		m.watchStats(),
		m.watchUpload(),
	)
}

// teardown drops the store subscriptions.
func (m *Model) teardown() {
	for _, cancel := range m.unsub {
		cancel()
	}
	m.unsub = nil
}

// handleResize recomputes the layout and rebuilds the markdown renderer for
// the new wrap width.
func (m *Model) handleResize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	// header (1) + error/notice (1) + input (1) + status (1)
	viewportHeight := height - 4
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if m.viewport.Width == 0 {
		m.viewport = viewport.New(width, viewportHeight)
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = width - 4

	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", zap.Error(err))
		m.renderer = nil
	} else {
		m.renderer = renderer
	}

	m.refreshViewport()
}
