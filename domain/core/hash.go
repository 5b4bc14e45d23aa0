package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
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

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// DatasetHash fingerprints the loaded observation table so a run manifest
// can be tied back to the exact input it was computed from.
type DatasetHash Hash

func NewDatasetHash(data []byte) DatasetHash { return DatasetHash(NewHash(data)) }

func (h DatasetHash) String() string { return Hash(h).String() }

// ComputeDatasetHash hashes column names and cell values in column order.
func ComputeDatasetHash(columns []string, cells func(column string) []string) DatasetHash {
	var data strings.Builder
	for _, col := range columns {
		data.WriteString(col)
		for _, cell := range cells(col) {
			data.WriteString(fmt.Sprintf("|%s", cell))
		}
		data.WriteString("\n")
	}
	return NewDatasetHash([]byte(data.String()))
}
