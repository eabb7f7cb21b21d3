// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bus provides the typed event channels connecting producers of
// user intents to the orchestration pipelines.
//
// Three independent channels ride one in-process pub/sub: chat requests,
// upload requests, and health-check triggers. Chat and upload are hot
// channels; health retains its latest trigger for late subscribers. Events
// are JSON-encoded on the wire so the payloads stay inspectable in logs.
package bus
