// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme(t *testing.T) {
	theme := New()
	if theme == nil {
		t.Fatal("New() returned nil")
	}

	// Styles must render content unchanged apart from decoration.
	out := theme.HeaderTitle.Render("StudyMate")
	if !strings.Contains(out, "StudyMate") {
		t.Errorf("rendered output lost its content: %q", out)
	}

	out = theme.ErrorBanner.Render("오류")
	if !strings.Contains(out, "오류") {
		t.Errorf("rendered output lost its content: %q", out)
	}
}
