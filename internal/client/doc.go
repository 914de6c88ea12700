// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync client application runtime.
//
// It wires the REST adapter, the push socket, the endpoint registry and
// background reloads into a single process lifecycle.
package client
