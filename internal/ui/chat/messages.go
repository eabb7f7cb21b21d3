// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/studymate-tui/internal/api"
	"github.com/jeranaias/studymate-tui/internal/model"
	"github.com/jeranaias/studymate-tui/internal/store"
)

// =============================================================================
// STATE CHANGE MESSAGES
// =============================================================================

// Messages delivered when a store cell changes. Each carries the cell's new
// value; the watcher command re-arms itself after every delivery.
type (
	messagesChangedMsg []model.Message
	loadingChangedMsg  bool
	errChangedMsg      string
	ragChangedMsg      bool
	statsChangedMsg    *api.DocumentStats
	uploadNoticeMsg    *store.UploadNotice
)

// =============================================================================
// COMMAND RESULT MESSAGES
// =============================================================================

// noticeMsg sets the transient status line text.
type noticeMsg string

// searchResultsMsg carries the outcome of a /search command.
type searchResultsMsg struct {
	resp *api.SearchResponse
	err  error
}

// modelsMsg carries the outcome of a /models command.
type modelsMsg struct {
	models []string
	err    error
}

// saveDoneMsg carries the outcome of a /save command.
type saveDoneMsg struct {
	id  string
	err error
}

// docsClearedMsg carries the outcome of /docs clear.
type docsClearedMsg struct {
	err error
}

// =============================================================================
// WATCHERS
// =============================================================================

// watch blocks on a subscription channel and wraps the next value as a
// Bubble Tea message. A closed channel produces nil, ending the watcher.
func watch[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

func (m Model) watchMessages() tea.Cmd {
	return watch(m.msgCh, func(v []model.Message) tea.Msg { return messagesChangedMsg(v) })
}

func (m Model) watchLoading() tea.Cmd {
	return watch(m.loadingCh, func(v bool) tea.Msg { return loadingChangedMsg(v) })
}

func (m Model) watchErr() tea.Cmd {
	return watch(m.errCh, func(v string) tea.Msg { return errChangedMsg(v) })
}

func (m Model) watchRag() tea.Cmd {
	return watch(m.ragCh, func(v bool) tea.Msg { return ragChangedMsg(v) })
}

func (m Model) watchStats() tea.Cmd {
	return watch(m.statsCh, func(v *api.DocumentStats) tea.Msg { return statsChangedMsg(v) })
}

func (m Model) watchUpload() tea.Cmd {
	return watch(m.uploadCh, func(v *store.UploadNotice) tea.Msg { return uploadNoticeMsg(v) })
}
