// Package signing implements the post-notarization signing exchange:
// the notary sends the canonical context to the prover, the prover asks
// for the full context or a redacted subset to be signed, and the
// notary answers with an encoded, signed attestation.
package signing

// ContextSigner signs pre-computed digests of context data.
//
// The encoder owns hashing — signers receive a digest, not the data.
// Implementations are sync; signing is CPU-bound.
type ContextSigner interface {
	// SignDigest signs a pre-computed digest and returns raw signature bytes.
	SignDigest(digest []byte) ([]byte, error)

	// PublicKeyBytes returns the compressed public key
	// (33 bytes for secp256k1).
	PublicKeyBytes() []byte

	// Algorithm is the identifier string, e.g. "secp256k1".
	Algorithm() string
}

// EncodedContext is the result of encoding a context for signing.
type EncodedContext struct {
	// Data is the encoded representation, for transmission.
	Data []byte
	// Digest is the hash that the signer signs.
	Digest []byte
}

// ContextEncoder encodes a context value into a signable form. The
// encoder owns both serialization and hashing.
type ContextEncoder interface {
	Encode(context any) (EncodedContext, error)

	// Name is the format name, e.g. "json".
	Name() string
}
