// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/studymate-tui/internal/storage"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// commandHandler handles one slash command. Handlers mutate the model in
// place and may return a command for asynchronous work.
type commandHandler func(m *Model, args []string) tea.Cmd

var commandHandlers = map[string]commandHandler{
	"help": handleHelp,
	"h":    handleHelp,
	"?":    handleHelp,

	"clear": handleClear,
	"c":     handleClear,

	"stats": handleStats,

	"rag": handleRag,

	"upload": handleUpload,
	"u":      handleUpload,

	"save": handleSave,
	"s":    handleSave,

	"search": handleSearch,

	"models": handleModels,

	"docs": handleDocs,

	"quit": handleQuit,
	"q":    handleQuit,
	"exit": handleQuit,
}

const helpText = "/clear 대화 지우기 · /stats 문서 현황 · /rag on|off · /upload <파일> [과목 [학년 [주제]]] · /save 대화 저장 · /search <검색어> · /models · /docs clear · /quit"

// runCommand parses and dispatches a slash command line.
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return m, nil
	}

	handler, ok := commandHandlers[strings.ToLower(fields[0])]
	if !ok {
		m.notice = "모르는 명령어야: /" + fields[0] + " (/help 참고)"
		return m, nil
	}
	cmd := handler(&m, fields[1:])
	return m, cmd
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelp(m *Model, _ []string) tea.Cmd {
	m.notice = helpText
	return nil
}

func handleClear(m *Model, _ []string) tea.Cmd {
	m.ctrl.ClearConversation()
	m.searchResults = nil
	m.notice = "대화를 새로 시작했어!"
	return nil
}

func handleStats(m *Model, _ []string) tea.Cmd {
	if err := m.ctrl.RefreshStats(); err != nil {
		m.notice = "문서 현황을 확인하지 못했어요"
		return nil
	}
	m.notice = "문서 현황을 확인하는 중..."
	return nil
}

func handleRag(m *Model, args []string) tea.Cmd {
	if len(args) != 1 {
		m.notice = "사용법: /rag on|off"
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "on":
		m.ctrl.SetRagEnabled(true)
	case "off":
		m.ctrl.SetRagEnabled(false)
	default:
		m.notice = "사용법: /rag on|off"
	}
	return nil
}

func handleUpload(m *Model, args []string) tea.Cmd {
	if len(args) == 0 {
		m.notice = "사용법: /upload <파일> [과목 [학년 [주제]]]"
		return nil
	}

	path := args[0]
	var subject, grade, topic string
	if len(args) > 1 {
		subject = args[1]
	}
	if len(args) > 2 {
		grade = args[2]
	}
	if len(args) > 3 {
		topic = args[3]
	}

	if err := m.ctrl.UploadFile(path, subject, grade, topic); err != nil {
		m.notice = "사용법: /upload <파일> [과목 [학년 [주제]]]"
		return nil
	}
	m.notice = "📤 업로드 중..."
	return nil
}

func handleSave(m *Model, _ []string) tea.Cmd {
	if m.transcripts == nil {
		m.notice = "저장소를 사용할 수 없어요"
		return nil
	}

	tr := &storage.Transcript{
		RagEnabled: m.rag,
		Messages:   m.store.Messages.Get(),
	}
	transcripts := m.transcripts
	return func() tea.Msg {
		id, err := transcripts.Save(tr)
		return saveDoneMsg{id: id, err: err}
	}
}

func handleSearch(m *Model, args []string) tea.Cmd {
	if len(args) == 0 {
		m.notice = "사용법: /search <검색어>"
		return nil
	}

	query := strings.Join(args, " ")
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		resp, err := client.SearchDocuments(ctx, query, 5)
		return searchResultsMsg{resp: resp, err: err}
	}
}

func handleModels(m *Model, _ []string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		models, err := client.ListModels(ctx)
		return modelsMsg{models: models, err: err}
	}
}

func handleDocs(m *Model, args []string) tea.Cmd {
	if len(args) != 1 || strings.ToLower(args[0]) != "clear" {
		m.notice = "사용법: /docs clear"
		return nil
	}

	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_, err := client.ClearDocuments(ctx)
		return docsClearedMsg{err: err}
	}
}

func handleQuit(m *Model, _ []string) tea.Cmd {
	m.teardown()
	return tea.Quit
}
