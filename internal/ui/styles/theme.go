// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the studymate TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PALETTE
// =============================================================================

// Purple - Primary accent, assistant messages
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, user messages, commands
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, RAG-on indicator
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors and warnings
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Notices, RAG-off indicator
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// TextDim - Secondary text
var TextDim = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

// SurfaceDim - Header/footer background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styled components for the chat view.
type Theme struct {
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	MessageBody    lipgloss.Style

	ErrorBanner lipgloss.Style
	Notice      lipgloss.Style

	InputPrompt lipgloss.Style

	StatusBar lipgloss.Style
	StatusRag lipgloss.Style
	StatusKey lipgloss.Style

	SearchTitle  lipgloss.Style
	SearchResult lipgloss.Style
}

// New builds the default theme.
func New() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			Background(SurfaceDim).
			Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true),

		UserLabel: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true),
		AssistantLabel: lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true),
		MessageBody: lipgloss.NewStyle().
			PaddingLeft(2),

		ErrorBanner: lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true).
			Padding(0, 1),
		Notice: lipgloss.NewStyle().
			Foreground(Amber),

		InputPrompt: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(TextDim).
			Background(SurfaceDim).
			Padding(0, 1),
		StatusRag: lipgloss.NewStyle().
			Foreground(Emerald).
			Bold(true),
		StatusKey: lipgloss.NewStyle().
			Foreground(Cyan),

		SearchTitle: lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true),
		SearchResult: lipgloss.NewStyle().
			Foreground(TextDim).
			PaddingLeft(2),
	}
}
