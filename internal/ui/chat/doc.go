// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view for studymate.
//
// The view is a thin presentation layer: it mirrors the store's cells via
// subscriptions, renders them, and turns user input into controller producer
// calls or slash commands. It never writes the store and never performs a
// chat or upload HTTP call itself; only the secondary document commands
// (/search, /models, /docs clear) use the api client directly.
package chat
