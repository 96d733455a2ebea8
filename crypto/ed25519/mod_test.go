package ed25519

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicKey_New(t *testing.T) {
	signer := NewSigner()

	data, err := signer.GetPublicKey().MarshalBinary()
	require.NoError(t, err)

	pk, err := NewPublicKey(data)
	require.NoError(t, err)
	require.True(t, pk.Equal(signer.GetPublicKey()))

	_, err = NewPublicKey(nil)
	require.EqualError(t, err, "couldn't unmarshal point: invalid length 0")
}

func TestPublicKey_Text(t *testing.T) {
	signer := NewSigner()

	text, err := signer.GetPublicKey().MarshalText()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(text), "schnorr:"))
	require.Len(t, text, len("schnorr:")+64)

	pk, err := ParsePublicKey(string(text))
	require.NoError(t, err)
	require.True(t, pk.Equal(signer.GetPublicKey()))

	require.Equal(t, string(text)[:8+16], pk.String())

	_, err = ParsePublicKey("abc")
	require.EqualError(t, err, "missing 'schnorr:' prefix")

	_, err = ParsePublicKey("schnorr:zz")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "malformed hex: "))
}

func TestPublicKey_Verify(t *testing.T) {
	signer := NewSigner()

	sig, err := signer.Sign([]byte("deadbeef"))
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), sig)
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("abc"), sig)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "schnorr verify failed: "))

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), nil)
	require.EqualError(t, err, "invalid signature type '<nil>'")
}

func TestPublicKey_Equal(t *testing.T) {
	signer := NewSigner()

	require.True(t, signer.GetPublicKey().Equal(signer.GetPublicKey()))
	require.False(t, signer.GetPublicKey().Equal(NewSigner().GetPublicKey()))
	require.False(t, signer.GetPublicKey().Equal("schnorr:"))
}

func TestSignature_Equal(t *testing.T) {
	sig := NewSignature([]byte{1, 2, 3})

	require.True(t, sig.Equal(NewSignature([]byte{1, 2, 3})))
	require.False(t, sig.Equal(NewSignature([]byte{1, 2})))
	require.False(t, sig.Equal(nil))

	data, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
}

func TestSigner_MarshalBinary(t *testing.T) {
	signer := NewSigner()

	data, err := signer.MarshalBinary()
	require.NoError(t, err)

	restored, err := NewSignerFromBytes(data)
	require.NoError(t, err)
	require.True(t, restored.GetPublicKey().Equal(signer.GetPublicKey()))

	sig, err := restored.Sign([]byte("deadbeef"))
	require.NoError(t, err)
	require.NoError(t, signer.GetPublicKey().Verify([]byte("deadbeef"), sig))

	_, err = NewSignerFromBytes([]byte{1})
	require.EqualError(t, err, "couldn't unmarshal scalar: invalid length 1")
}

func TestGenerator_Generate(t *testing.T) {
	data, err := Generator{}.Generate()
	require.NoError(t, err)

	_, err = NewSignerFromBytes(data)
	require.NoError(t, err)
}
