// Package checksum computes content hashes for deployed WASM modules.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

const bufSize = 32 * 1024

// Sum streams the file at path through SHA-256 and returns its
// lowercase hex digest. No cross-name cache is kept: a changed file on
// disk always re-hashes from scratch.
func Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, bufSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
