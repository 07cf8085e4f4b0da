package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/require"
)

func verifySig(t *testing.T, signer *Secp256k1Signer, digest, sig []byte) bool {
	t.Helper()
	require.Len(t, sig, 64)
	var r, s secp256k1.ModNScalar
	require.False(t, r.SetByteSlice(sig[:32]))
	require.False(t, s.SetByteSlice(sig[32:]))
	pub, err := secp256k1.ParsePubKey(signer.PublicKeyBytes())
	require.NoError(t, err)
	return ecdsa.NewSignature(&r, &s).Verify(digest, pub)
}

func TestSecp256k1Signer(t *testing.T) {
	signer, err := NewSecp256k1Signer("test-seed")
	require.NoError(t, err)
	require.Equal(t, "secp256k1", signer.Algorithm())
	require.Len(t, signer.PublicKeyBytes(), 33)

	digest := sha256.Sum256([]byte("hello"))
	sig, err := signer.SignDigest(digest[:])
	require.NoError(t, err)
	require.True(t, verifySig(t, signer, digest[:], sig))

	other, err := NewSecp256k1Signer("other-seed")
	require.NoError(t, err)
	require.NotEqual(t, signer.PublicKeyBytes(), other.PublicKeyBytes())

	_, err = NewSecp256k1Signer("")
	require.Error(t, err)

	_, err = signer.SignDigest([]byte("short"))
	require.Error(t, err)
}

func runExchangePair(t *testing.T, context string, prover func(rw net.Conn)) error {
	t.Helper()
	signer, err := NewSecp256k1Signer("test-seed")
	require.NoError(t, err)

	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	go prover(remote)
	return RunExchange(local, json.RawMessage(context), signer, JSONEncoder{})
}

func TestExchangeSignFullContext(t *testing.T) {
	context := `{"request":{"method":"GET"},"response":{"status":200}}`

	var signed NotaryMessage
	done := make(chan struct{})
	err := runExchangePair(t, context, func(rw net.Conn) {
		defer close(done)
		var ctxMsg NotaryMessage
		if err := ReadMessage(rw, &ctxMsg); err != nil {
			t.Error(err)
			return
		}
		if ctxMsg.Type != TypeContext || ctxMsg.Data != context {
			t.Errorf("unexpected context message %+v", ctxMsg)
			return
		}
		if err := WriteMessage(rw, &ProverMessage{Type: TypeSignRequest}); err != nil {
			t.Error(err)
			return
		}
		if err := ReadMessage(rw, &signed); err != nil {
			t.Error(err)
		}
	})
	require.NoError(t, err)
	<-done

	require.Equal(t, TypeSigned, signed.Type)
	require.Equal(t, "json", signed.Format)
	require.Equal(t, "secp256k1", signed.Algorithm)

	sig, err := hex.DecodeString(signed.Signature)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte(signed.Data))
	signer, err := NewSecp256k1Signer("test-seed")
	require.NoError(t, err)
	require.True(t, verifySig(t, signer, digest[:], sig))
}

func TestExchangeSignFilteredSubset(t *testing.T) {
	context := `{"request":{"method":"GET"},"response":{"status":200,"body":"secret"}}`
	filtered := `{"request":{"method":"GET"},"response":{"status":200,"body":null}}`

	var signed NotaryMessage
	done := make(chan struct{})
	err := runExchangePair(t, context, func(rw net.Conn) {
		defer close(done)
		var ctxMsg NotaryMessage
		if err := ReadMessage(rw, &ctxMsg); err != nil {
			t.Error(err)
			return
		}
		if err := WriteMessage(rw, &ProverMessage{Type: TypeSignFiltered, Data: filtered}); err != nil {
			t.Error(err)
			return
		}
		if err := ReadMessage(rw, &signed); err != nil {
			t.Error(err)
		}
	})
	require.NoError(t, err)
	<-done

	require.Equal(t, TypeSigned, signed.Type)
	require.JSONEq(t, filtered, signed.Data)
}

func TestExchangeRejectsInvalidSubset(t *testing.T) {
	context := `{"a":1}`
	tampered := `{"a":2}`

	err := runExchangePair(t, context, func(rw net.Conn) {
		var ctxMsg NotaryMessage
		if err := ReadMessage(rw, &ctxMsg); err != nil {
			return
		}
		_ = WriteMessage(rw, &ProverMessage{Type: TypeSignFiltered, Data: tampered})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a valid subset")
}

func TestReadMessageRejectsOversize(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	go func() {
		// forged length prefix beyond the cap
		_, _ = remote.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}()

	var out json.RawMessage
	err := ReadMessage(local, &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "too large")
}
