// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversation transcripts to disk.
//
// Each transcript is a single JSON file under ~/.studymate/conversations/,
// written atomically so a crash never leaves a partial file. The store keeps
// at most MaxTranscripts files, evicting the oldest first.
package storage
