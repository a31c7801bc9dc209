// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package proxy implements the advisor proxy: an HTTP service that holds the
// upstream API key, validates browser and CLI requests, injects the system
// prompt, forwards a bounded history upstream and normalizes the reply.
//
// Request handling, in order:
//   - OPTIONS: 204 with CORS headers, or 403 for a disallowed origin
//   - any other non-POST method: 405
//   - disallowed origin: 403 (plain text)
//   - missing, empty or non-string userMessage: 400
//   - userMessage over 1000 characters: 400
//   - upstream failure: 500 with a fixed apology; upstream detail is only logged
//
// When ALLOWED_ORIGINS is unset every origin is accepted. That is a
// development fallback: it is logged as a warning at startup, tagged on every
// request log and counted in advisor_proxy_allow_all_requests_total.
package proxy
