// Package ecmh implements an elliptic-curve multiset hash on the
// ristretto group. The digest is insensitive to insertion order and
// supports removal, which makes it a cheap integrity check for an
// append-only journal that can roll back its latest record.
package ecmh

import (
	"encoding/hex"
	"fmt"

	"github.com/bwesterb/go-ristretto"
)

// MultisetHash accumulates set elements into a single group element.
type MultisetHash struct {
	accumulator *ristretto.Point
}

// NewMultisetHash creates the hash of the empty multiset.
func NewMultisetHash() *MultisetHash {
	p := ristretto.Point{}
	p.SetZero()

	return &MultisetHash{
		accumulator: &p,
	}
}

// String returns the hex-encoded digest.
func (h *MultisetHash) String() string {
	return hex.EncodeToString(h.accumulator.Bytes())
}

// Bytes returns the 32-byte digest.
func (h *MultisetHash) Bytes() []byte {
	return h.accumulator.Bytes()
}

// SetBytes restores a digest previously obtained from Bytes.
func (h *MultisetHash) SetBytes(buf []byte) error {
	if len(buf) != 32 {
		return fmt.Errorf("digest must be 32 bytes, got %d", len(buf))
	}
	var b [32]byte
	copy(b[:], buf)
	if ok := h.accumulator.SetBytes(&b); !ok {
		return fmt.Errorf("digest is not a valid group element")
	}
	return nil
}

// SetString restores a digest previously obtained from String.
func (h *MultisetHash) SetString(s string) error {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode digest: %s", err)
	}
	return h.SetBytes(buf)
}

// Insert adds an element to the multiset.
func (h *MultisetHash) Insert(p *ristretto.Point) {
	h.accumulator.Add(h.accumulator, p)
}

// Remove removes an element from the multiset.
func (h *MultisetHash) Remove(p *ristretto.Point) {
	h.accumulator.Sub(h.accumulator, p)
}

// Union folds another multiset into this one.
func (h *MultisetHash) Union(other *MultisetHash) {
	h.accumulator.Add(h.accumulator, other.accumulator)
}

// Difference removes another multiset from this one.
func (h *MultisetHash) Difference(other *MultisetHash) {
	h.accumulator.Sub(h.accumulator, other.accumulator)
}

// InsertBytes adds an arbitrary byte string to the multiset.
func (h *MultisetHash) InsertBytes(data []byte) {
	h.Insert(derive(data))
}

// RemoveBytes removes an arbitrary byte string from the multiset.
func (h *MultisetHash) RemoveBytes(data []byte) {
	h.Remove(derive(data))
}

func derive(data []byte) *ristretto.Point {
	p := ristretto.Point{}
	return p.DeriveDalek(data)
}
