package signing

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Secp256k1Signer signs digests with ECDSA over the secp256k1 curve.
// The SHA-256 hash of a seed string becomes the 32-byte private key.
type Secp256k1Signer struct {
	priv *secp256k1.PrivateKey
}

// NewSecp256k1Signer derives a signer from a seed string.
func NewSecp256k1Signer(seed string) (*Secp256k1Signer, error) {
	if seed == "" {
		return nil, fmt.Errorf("empty signing key seed")
	}
	hash := sha256.Sum256([]byte(seed))
	priv := secp256k1.PrivKeyFromBytes(hash[:])
	if priv.Key.IsZero() {
		return nil, fmt.Errorf("seed derives a zero key")
	}
	return &Secp256k1Signer{priv: priv}, nil
}

// SignDigest returns the 64-byte r||s signature of a 32-byte digest.
func (s *Secp256k1Signer) SignDigest(digest []byte) ([]byte, error) {
	if len(digest) != sha256.Size {
		return nil, fmt.Errorf("digest must be %d bytes, got %d", sha256.Size, len(digest))
	}
	sig := ecdsa.Sign(s.priv, digest)
	r := sig.R()
	sv := sig.S()
	rb := r.Bytes()
	sb := sv.Bytes()
	out := make([]byte, 0, 64)
	out = append(out, rb[:]...)
	out = append(out, sb[:]...)
	return out, nil
}

func (s *Secp256k1Signer) PublicKeyBytes() []byte {
	return s.priv.PubKey().SerializeCompressed()
}

func (s *Secp256k1Signer) Algorithm() string { return "secp256k1" }
