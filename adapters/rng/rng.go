package rng

import (
	"context"
	"math"
	"math/rand"

	"flureport/domain/core"
	"flureport/ports"
)

// Adapter implements ports.RNGPort with name-salted deterministic streams,
// so the bootstrap for BodyTemp and any future resampling stage draw from
// independent generators under the same base seed.
type Adapter struct{}

var _ ports.RNGPort = (*Adapter)(nil)

// New creates the RNG adapter.
func New() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	salted := seed
	if name != "" {
		salted += int64(hashString(name))
	}
	return rand.New(rand.NewSource(salted)), nil
}

// ValidateSeed ensures the seed produces expected deterministic results
func (a *Adapter) ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error {
	stream, err := a.SeededStream(ctx, name, seed)
	if err != nil {
		return err
	}
	for _, want := range expected {
		if got := stream.Float64(); math.Abs(got-want) > 1e-12 {
			return core.ErrSeedMismatch
		}
	}
	return nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
