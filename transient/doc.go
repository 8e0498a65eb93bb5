// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies the transport-level errors that end an
// HTTP request operation, so that retry policies, event handlers, and
// metrics can reason about why an operation failed without inspecting
// error strings.
package transient
