// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/studymate-tui/internal/controller"
)

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.handleResize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	// Store watchers.

	case messagesChangedMsg:
		m.messages = msg
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, m.watchMessages()

	case loadingChangedMsg:
		wasLoading := m.loading
		m.loading = bool(msg)
		if m.loading && !wasLoading {
			return m, tea.Batch(m.watchLoading(), m.spinner.Tick)
		}
		return m, m.watchLoading()

	case errChangedMsg:
		m.errText = string(msg)
		return m, m.watchErr()

	case ragChangedMsg:
		m.rag = bool(msg)
		return m, m.watchRag()

	case statsChangedMsg:
		m.stats = msg
		return m, m.watchStats()

	case uploadNoticeMsg:
		if msg != nil {
			m.notice = fmt.Sprintf("📚 %s 업로드 완료 (%d개 문서 추가)", msg.Filename, msg.DocumentsAdded)
		}
		return m, m.watchUpload()

	// Command results.

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			m.notice = "문서 검색에 실패했어요"
			return m, nil
		}
		m.searchResults = msg.resp
		m.notice = fmt.Sprintf("🔍 %d개 결과", len(msg.resp.Results))
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case modelsMsg:
		if msg.err != nil {
			m.notice = "모델 목록을 가져오지 못했어요"
			return m, nil
		}
		m.notice = "모델: " + strings.Join(msg.models, ", ")
		return m, nil

	case saveDoneMsg:
		if msg.err != nil {
			m.notice = "대화 저장에 실패했어요"
		} else {
			m.notice = "💾 저장 완료: " + msg.id
		}
		return m, nil

	case docsClearedMsg:
		if msg.err != nil {
			m.notice = "문서 삭제에 실패했어요"
			return m, nil
		}
		m.notice = "🗑️ 모든 문서가 삭제되었어요"
		// Stats follow the emptied store.
		m.ctrl.RefreshStats()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes one key press.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.teardown()
		return m, tea.Quit

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the enter key: a slash command is dispatched to its
// handler, anything else is sent as a chat message.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.runCommand(text)
	}

	if err := m.ctrl.SendMessage(text); err != nil {
		if errors.Is(err, controller.ErrBusy) {
			m.notice = "⏳ 답변을 기다리는 중이야, 잠깐만!"
		}
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	return m, textinput.Blink
}
