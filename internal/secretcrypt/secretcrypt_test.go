package secretcrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Is32Bytes(t *testing.T) {
	key := DeriveKey("secret-enc-key", "jwt-secret")
	assert.Len(t, key, 32)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	a := DeriveKey("k", "j")
	b := DeriveKey("k", "j")
	assert.Equal(t, a, b)
}

func TestDeriveKey_DifferentInputsDifferentKeys(t *testing.T) {
	a := DeriveKey("k1", "j")
	b := DeriveKey("k2", "j")
	assert.NotEqual(t, a, b)
}

func TestNew_RejectsWrongKeyLength(t *testing.T) {
	_, err := New([]byte("too-short"))
	assert.Error(t, err)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	box, err := New(DeriveKey("enc-key", "jwt-secret"))
	require.NoError(t, err)

	plaintext := []byte("hunter2")
	sealed, err := box.Seal(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed)

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSeal_NondeterministicNonce(t *testing.T) {
	box, err := New(DeriveKey("enc-key", "jwt-secret"))
	require.NoError(t, err)

	a, err := box.Seal([]byte("same-plaintext"))
	require.NoError(t, err)
	b, err := box.Seal([]byte("same-plaintext"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "random nonce should make repeated seals differ")
}

func TestOpen_WrongKeyFails(t *testing.T) {
	box1, err := New(DeriveKey("enc-key-1", "jwt-secret"))
	require.NoError(t, err)
	box2, err := New(DeriveKey("enc-key-2", "jwt-secret"))
	require.NoError(t, err)

	sealed, err := box1.Seal([]byte("top secret"))
	require.NoError(t, err)

	_, err = box2.Open(sealed)
	assert.Error(t, err)
}

func TestOpen_TruncatedCiphertextFails(t *testing.T) {
	box, err := New(DeriveKey("enc-key", "jwt-secret"))
	require.NoError(t, err)

	_, err = box.Open([]byte("short"))
	assert.Error(t, err)
}
