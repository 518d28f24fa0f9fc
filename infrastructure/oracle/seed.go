package oracle

import (
	"crypto/rand"
	"fmt"

	"prizedraw/domain/entities"
)

// SeedSource produces 256-bit seeds
type SeedSource func() (entities.Seed, error)

// CryptoSeed reads a seed from the operating system CSPRNG
func CryptoSeed() (entities.Seed, error) {
	var seed entities.Seed
	if _, err := rand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("failed to read random seed: %w", err)
	}
	return seed, nil
}
