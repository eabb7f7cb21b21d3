// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "StudyMate"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// WelcomeID is the fixed ID of the synthetic greeting that opens every
// conversation. Messages with this ID are excluded from the history sent
// to the backend.
const WelcomeID = "welcome"

// welcomeContent is the greeting shown before any exchange has happened.
const welcomeContent = "안녕! 나는 너의 학습 친구야! 😊\n궁금한 것이 있거나 도움이 필요하면 언제든지 물어봐!\n함께 재미있게 배워보자!"

// Message represents a single message in a conversation.
// A Message is immutable once created.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// Welcome returns the synthetic greeting message.
func Welcome() Message {
	return Message{
		ID:        WelcomeID,
		Role:      RoleAssistant,
		Content:   welcomeContent,
		Timestamp: time.Now(),
	}
}

// IsWelcome reports whether the message is the synthetic greeting.
func (m Message) IsWelcome() bool {
	return m.ID == WelcomeID
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0
}
