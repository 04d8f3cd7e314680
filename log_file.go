// log_file.go: persistent log file sink
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"os"
	"path/filepath"
	"sync"
)

// logFile appends to the file at path. The file, and its directory, are
// only created on the first write, so a run without failures leaves no log
// behind.
type logFile struct {
	path string

	mu   sync.Mutex
	file *os.File
	err  error
}

func newLogFile(path string) *logFile {
	return &logFile{path: path}
}

func (f *logFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil && f.err == nil {
		f.err = f.open()
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.file.Write(p)
}

func (f *logFile) open() error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return NewLogFileError(f.path, err)
		}
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G302 G304 -- log path is operator configuration
	if err != nil {
		return NewLogFileError(f.path, err)
	}
	f.file = file
	return nil
}

// Close closes the file if it was opened. Safe to call more than once.
func (f *logFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	if err != nil {
		return NewLogFileError(f.path, err)
	}
	return nil
}
