// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command mfetch fetches a list of URLs concurrently through one shared
// session, retrying transient failures, and prints one result line per
// URL.
//
// Usage:
//
//	mfetch [flags] [url ...]
//
// URLs are read from the arguments and from the file named by --input
// ("-" for standard input), one per line. Blank lines and lines
// starting with # are ignored.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
