// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/studymate-tui/internal/model"
	"github.com/jeranaias/studymate-tui/internal/util"
)

// View renders the complete chat screen.
// Layout: header (1) + conversation (viewport) + banner (1) + input (1) + status (1).
func (m Model) View() string {
	if !m.ready {
		return "잠깐만 기다려줘..."
	}

	return strings.Join([]string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderBanner(),
		m.input.View(),
		m.renderStatusBar(),
	}, "\n")
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("📖 StudyMate")
	sub := " — 초등학생 학습 도우미"
	return m.theme.Header.Width(m.width).Render(title + sub)
}

// renderBanner shows the error text when set, otherwise the transient
// notice line.
func (m Model) renderBanner() string {
	if m.errText != "" {
		return m.theme.ErrorBanner.Render(util.TruncateRunes(m.errText, m.width-2))
	}
	if m.loading {
		return m.spinner.View() + " 생각하는 중..."
	}
	if m.notice != "" {
		return m.theme.Notice.Render(util.TruncateRunes(m.notice, m.width-2))
	}
	return ""
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.rag {
		parts = append(parts, m.theme.StatusRag.Render("RAG ON"))
	} else {
		parts = append(parts, "RAG OFF")
	}

	if m.stats != nil {
		parts = append(parts, fmt.Sprintf("문서 %d개", m.stats.TotalDocuments))
		if len(m.stats.Subjects) > 0 {
			parts = append(parts, fmt.Sprintf("과목 %d개", len(m.stats.Subjects)))
		}
	} else {
		parts = append(parts, "서버 확인 중...")
	}

	parts = append(parts, m.theme.StatusKey.Render("/help")+" 명령어")

	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, " · "))
}

// refreshViewport rebuilds the conversation text shown in the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}

	if m.searchResults != nil {
		b.WriteString("\n")
		b.WriteString(m.renderSearchResults())
	}

	m.viewport.SetContent(b.String())
}

func (m Model) renderMessage(msg model.Message) string {
	label := msg.Role.DisplayName()
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(label)
	default:
		label = m.theme.AssistantLabel.Render(label)
	}

	body := msg.Content
	if msg.Role == model.RoleAssistant && m.renderer != nil {
		if rendered, err := m.renderer.Render(msg.Content); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	} else {
		body = m.theme.MessageBody.Render(body)
	}

	return label + "\n" + body + "\n"
}

func (m Model) renderSearchResults() string {
	var b strings.Builder
	b.WriteString(m.theme.SearchTitle.Render(fmt.Sprintf("🔍 \"%s\" 검색 결과", m.searchResults.Query)))
	b.WriteString("\n")

	if len(m.searchResults.Results) == 0 {
		b.WriteString(m.theme.SearchResult.Render("관련 문서를 찾지 못했어요"))
		b.WriteString("\n")
		return b.String()
	}

	for i, r := range m.searchResults.Results {
		line := fmt.Sprintf("%d. %s", i+1, util.TruncateRunes(strings.ReplaceAll(r.Text, "\n", " "), 80))
		if subject := r.Metadata["subject"]; subject != "" {
			line += lipgloss.NewStyle().Faint(true).Render(" [" + subject + "]")
		}
		b.WriteString(m.theme.SearchResult.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
