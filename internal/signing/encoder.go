package signing

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// JSONEncoder encodes the context as compact JSON with a SHA-256
// digest. This is the default encoder.
type JSONEncoder struct{}

func (JSONEncoder) Encode(context any) (EncodedContext, error) {
	data, err := json.Marshal(context)
	if err != nil {
		return EncodedContext{}, fmt.Errorf("serializing context to canonical JSON: %w", err)
	}
	digest := sha256.Sum256(data)
	return EncodedContext{Data: data, Digest: digest[:]}, nil
}

func (JSONEncoder) Name() string { return "json" }
