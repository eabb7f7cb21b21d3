// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the StudyMate
// backend service.
//
// The client exposes one method per backend endpoint (health, chat,
// streaming chat, upload, and the secondary document endpoints), applies a
// per-call timeout and retry policy, and normalizes every failure into a
// single ClientError taxonomy: connection, timeout, service (non-2xx), and
// stream-decode. Timeout and connection failures look identical to callers;
// only the logs tell them apart.
//
// The client holds no connection state between calls and is safe for
// concurrent use.
package api
