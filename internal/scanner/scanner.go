// Copyright 2019 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package scanner lists deployable WASM modules and their pending
// intent in a watched directory.
package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// intents in precedence order, highest first. A name with more than
// one side-file present is driven by the first match.
var intents = []string{"redeploy", "undeploy", "undeployed", "running", "deploy"}

const (
	wasmExt = ".wasm"
	partExt = ".wasm.part"
	zipExt  = ".zip"
)

// ScanEntry is one module found on disk together with its resolved
// next-intent, if any side-file names one.
type ScanEntry struct {
	Path       string
	Name       string
	NextStatus string // one of intents, or "" if no side-file is present
}

// Scanner lists modules in a watched directory.
type Scanner struct{}

// New constructs a Scanner. It carries no state: all configuration is
// passed per call.
func New() *Scanner {
	return &Scanner{}
}

// Scan lists every deployable module under dir and resolves its
// pending intent from side-files. Files still being written
// (`.wasm.part`) are excluded.
func (s *Scanner) Scan(dir string) ([]ScanEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []ScanEntry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		fname := e.Name()
		if strings.HasSuffix(fname, partExt) {
			continue
		}
		if !strings.HasSuffix(fname, wasmExt) && !strings.HasSuffix(fname, zipExt) {
			continue
		}

		name := strings.TrimSuffix(strings.TrimSuffix(fname, wasmExt), zipExt)

		out = append(out, ScanEntry{
			Path:       filepath.Join(dir, fname),
			Name:       name,
			NextStatus: resolveIntent(dir, name),
		})
	}

	return out, nil
}

// resolveIntent returns the highest-precedence side-file intent
// present for name, or "" if none exist.
func resolveIntent(dir, name string) string {
	for _, intent := range intents {
		path := filepath.Join(dir, name+"."+intent)
		if _, err := os.Stat(path); err == nil {
			return intent
		}
	}
	return ""
}

// DeleteSideFiles removes every consumed intent side-file under dir.
// Failures are collected and returned rather than aborting: a single
// unremovable side-file should not stop the rest of the tick.
func (s *Scanner) DeleteSideFiles(dir string) []error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []error{err}
	}

	var errs []error
	for _, e := range entries {
		fname := e.Name()
		for _, intent := range intents {
			if strings.HasSuffix(fname, "."+intent) {
				if err := os.Remove(filepath.Join(dir, fname)); err != nil && !os.IsNotExist(err) {
					errs = append(errs, err)
				}
				break
			}
		}
	}

	return errs
}
