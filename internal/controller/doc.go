// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller runs the request orchestration pipelines.
//
// A Controller owns three pipelines, one per event channel (chat, upload,
// health). Each pipeline consumes intent events from the bus, performs the
// backend call through the api client, and writes the outcome to the store.
// At most one request per channel is serviced at a time: accepting a new
// event supersedes the in-flight one, cancelling its context and discarding
// its completion. Activity on one channel never blocks or cancels another.
//
// The store is written only by pipelines (and ClearConversation). A
// completed request settles and finalizes atomically with respect to
// supersession: a superseded completion performs no store writes at all.
package controller
