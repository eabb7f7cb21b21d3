// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the shared application state as independent reactive
// cells.
package store

import (
	"github.com/jeranaias/studymate-tui/internal/api"
	"github.com/jeranaias/studymate-tui/internal/model"
)

// UploadNotice is the success payload of a completed upload, consumed by
// the presentation layer for its status line.
type UploadNotice struct {
	Filename       string
	DocumentsAdded int
}

// Store owns the application's shared mutable state for the controller's
// lifetime. Pipelines are the only writers; presentation and the transport
// client never write.
type Store struct {
	// Messages is the append-only conversation log, seeded with the
	// synthetic welcome message. The only non-append mutation is Reset.
	Messages *Cell[[]model.Message]

	// Loading is true exactly while a non-superseded chat request is
	// between acceptance and finalize. Upload and health activity never
	// touch it.
	Loading *Cell[bool]

	// Err is the banner-style error text; empty means no error.
	Err *Cell[string]

	// RagEnabled controls whether chat requests ask for document retrieval.
	RagEnabled *Cell[bool]

	// Stats holds the backend's document statistics; nil until the first
	// successful health check. Replaced wholesale, never partially mutated.
	Stats *Cell[*api.DocumentStats]

	// Upload holds the most recent upload success notice; nil until an
	// upload succeeds.
	Upload *Cell[*UploadNotice]
}

// New creates a Store seeded with the welcome message, RAG enabled, and
// everything else at rest.
func New() *Store {
	return &Store{
		Messages:   NewCell([]model.Message{model.Welcome()}),
		Loading:    NewCell(false),
		Err:        NewCell(""),
		RagEnabled: NewCell(true),
		Stats:      NewCell[*api.DocumentStats](nil),
		Upload:     NewCell[*UploadNotice](nil),
	}
}

// AppendMessage adds a message to the end of the conversation log.
// The log is copied on write so readers holding an old slice never observe
// mutation.
func (s *Store) AppendMessage(m model.Message) {
	s.Messages.Update(func(msgs []model.Message) []model.Message {
		next := make([]model.Message, len(msgs), len(msgs)+1)
		copy(next, msgs)
		return append(next, m)
	})
}

// History returns the conversation as backend chat turns, excluding the
// synthetic welcome message. The returned order is the canonical
// conversation order.
func (s *Store) History() []api.ChatTurn {
	msgs := s.Messages.Get()
	turns := make([]api.ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		if m.IsWelcome() {
			continue
		}
		turns = append(turns, api.ChatTurn{Role: m.Role.String(), Content: m.Content})
	}
	return turns
}

// Reset clears the conversation back to exactly the welcome message and
// removes any error. Idempotent: calling it on an already-reset store
// leaves the same state.
func (s *Store) Reset() {
	s.Messages.Set([]model.Message{model.Welcome()})
	s.Err.Set("")
}
