// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("수학 문제 도와줘")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want 'user'", msg.Role)
	}

	if msg.Content != "수학 문제 도와줘" {
		t.Errorf("Content = %q", msg.Content)
	}

	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}

	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage("물론이야!")

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want 'assistant'", msg.Role)
	}

	if msg.Content != "물론이야!" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := NewUserMessage("hi")
		if seen[msg.ID] {
			t.Fatalf("duplicate message ID %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestWelcome(t *testing.T) {
	msg := Welcome()

	if msg.ID != WelcomeID {
		t.Errorf("ID = %q, want %q", msg.ID, WelcomeID)
	}

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want 'assistant'", msg.Role)
	}

	if !msg.IsWelcome() {
		t.Error("IsWelcome should be true")
	}

	if NewUserMessage("hi").IsWelcome() {
		t.Error("IsWelcome should be false for a regular message")
	}
}

func TestPreview(t *testing.T) {
	msg := NewUserMessage("안녕하세요 반갑습니다")

	if got := msg.Preview(100); got != "안녕하세요 반갑습니다" {
		t.Errorf("Preview(100) = %q, want full content", got)
	}

	short := msg.Preview(8)
	if runes := []rune(short); len(runes) != 8 {
		t.Errorf("Preview(8) length = %d runes, want 8", len(runes))
	}
	if !strings.HasSuffix(short, "...") {
		t.Errorf("Preview(8) = %q, want ... suffix", short)
	}
}

func TestRoleDisplayName(t *testing.T) {
	if got := RoleUser.DisplayName(); got != "You" {
		t.Errorf("DisplayName = %q, want 'You'", got)
	}
	if got := RoleAssistant.DisplayName(); got != "StudyMate" {
		t.Errorf("DisplayName = %q, want 'StudyMate'", got)
	}
}
