package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough for display
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ComputeDatasetFingerprint hashes dataset names and their cell values in
// order. Two imports of the same workbook produce the same fingerprint.
func ComputeDatasetFingerprint(names []string, cells [][]string) Hash {
	var data strings.Builder
	for i, name := range names {
		data.WriteString(name)
		data.WriteByte(0)
		if i < len(cells) {
			for _, c := range cells[i] {
				data.WriteString(c)
				data.WriteByte(0x1f)
			}
		}
		data.WriteByte(0x1e)
	}
	return NewHash([]byte(data.String()))
}
