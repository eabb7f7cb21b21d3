// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the shared application state as independent reactive
// cells.
//
// Each cell exposes its current value plus a subscription for changes, so
// the presentation layer can render reactively without the core depending
// on any rendering mechanism. Only the orchestration pipelines write to the
// store.
package store
