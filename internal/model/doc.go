// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
//
// The conversation is an append-only sequence of Messages seeded with a
// single synthetic welcome message. That sequence, minus the welcome entry,
// is the canonical history sent back to the StudyMate backend on each chat
// request.
package model
