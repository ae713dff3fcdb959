package vault

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const addressPrefix = "hal1"

// keyHandle is the signing handle handed out by the vault. It keeps the seed
// private; collaborators only see the address and a Sign method.
type keyHandle struct {
	address string
	seed    []byte
}

func newKeyHandle(address string, seed []byte) keyHandle {
	return keyHandle{address, seed}
}

func (k keyHandle) Address() string {
	return k.address
}

func (k keyHandle) Sign(message []byte) ([]byte, error) {
	if len(k.seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("malformed key for %s", k.address)
	}
	privateKey := ed25519.NewKeyFromSeed(k.seed)
	return ed25519.Sign(privateKey, message), nil
}

// GenerateKey returns a fresh random seed and the address it controls.
func GenerateKey() ([]byte, string, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, "", err
	}
	return seed, AddressFromSeed(seed), nil
}

// AddressFromSeed derives the address controlled by a seed: the prefixed,
// truncated hash of its public key.
func AddressFromSeed(seed []byte) string {
	publicKey := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	digest := sha256.Sum256(publicKey)
	return addressPrefix + hex.EncodeToString(digest[:20])
}
