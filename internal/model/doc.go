// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// A Session is one conversation thread: an ordered message history plus a
// title and creation time. A Message is one turn in a session, authored by
// the user or the assistant. User messages may carry structured Parts
// (typed text plus an optional inline image); assistant messages carry
// plain accumulated text.
//
// Values here are plain data. Mutation policy (ordering, streaming
// accumulation, rollback) lives in the store and submit packages.
package model
