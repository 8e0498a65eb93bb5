// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for choosing the transfer timeout of
// each transport operation a request makes, including on retries. A
// generic interface for timeout policies is provided, Policy, along
// with the Fixed and Adaptive policy constructors and the Infinite
// policy.
//
// A client with no timeout policy uses Fixed with the transfer timeout
// of its session (trans_timeout).
package timeout
