// Package deploy stages uploaded module bytes on disk and atomically
// publishes them into the watched directory.
package deploy

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
)

// SourceKind records which payload encoding a Load stream carried.
type SourceKind int

const (
	// SourceRaw is a bare .wasm payload.
	SourceRaw SourceKind = iota
	// SourceZip is a zip archive carrying a runnable.wasm member,
	// grounded on the original Rust implementation's bundle format.
	SourceZip
)

var zipMagic = []byte("PK\x03\x04")

const runnableMember = "runnable.wasm"

// Writer stages and publishes module uploads into a watched
// directory.
type Writer struct {
	dir string
}

// New returns a Writer that publishes into dir.
func New(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write streams r to a temporary "<dir>/<name>.<random>.wasm.part"
// file (os.CreateTemp), then atomically renames
// it to "<dir>/<name>.wasm" on clean EOF. If r's first bytes are a zip
// local-file-header magic, the payload is treated as a zip archive and
// its runnable.wasm member is extracted before the rename. Any read
// error or context cancellation before EOF removes the partial file
// and returns a StreamError.
func (w *Writer) Write(ctx context.Context, name string, r io.Reader) (SourceKind, error) {
	tmp, err := os.CreateTemp(w.dir, name+".*.wasm.part")
	if err != nil {
		return SourceRaw, &StreamError{Name: name, Err: err}
	}
	partPath := tmp.Name()

	br := bufio.NewReader(r)
	peek, _ := br.Peek(len(zipMagic))
	kind := SourceRaw
	if bytes.Equal(peek, zipMagic) {
		kind = SourceZip
	}

	if _, err := io.Copy(tmp, ctxReader{ctx: ctx, r: br}); err != nil {
		tmp.Close()
		os.Remove(partPath)
		return kind, &StreamError{Name: name, Err: err}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(partPath)
		return kind, &StreamError{Name: name, Err: err}
	}

	finalPath := filepath.Join(w.dir, name+".wasm")

	if kind == SourceZip {
		extracted, err := extractRunnable(partPath, w.dir, name)
		os.Remove(partPath)
		if err != nil {
			return kind, &StreamError{Name: name, Err: err}
		}
		partPath = extracted
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		os.Remove(partPath)
		return kind, &StreamError{Name: name, Err: err}
	}

	return kind, nil
}

// extractRunnable opens zipPath as a zip archive, extracts its
// runnable.wasm member to a new temp file under dir, and returns that
// temp file's path.
func extractRunnable(zipPath, dir, name string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	var member *zip.File
	for _, f := range zr.File {
		if f.Name == runnableMember {
			member = f
			break
		}
	}
	if member == nil {
		return "", &StreamError{Name: name, Err: errMissingRunnable}
	}

	src, err := member.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.CreateTemp(dir, name+".*.wasm.part")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}

	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}

	return out.Name(), nil
}

// ctxReader wraps r, surfacing ctx's cancellation as a read error so
// an in-flight Write aborts promptly instead of running to EOF.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
