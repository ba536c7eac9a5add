package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	secret := []byte{0x31, 0x8c, 0x63, 0xff, 0x01}
	Zero(secret)
	assert.Equal(t, make([]byte, 5), secret)

	Zero(nil)
}

func TestClearBytes(t *testing.T) {
	secret := []byte("master secret bytes")
	alias := secret

	ClearBytes(&secret)
	assert.Nil(t, secret)
	assert.Equal(t, make([]byte, len(alias)), alias)

	var empty []byte
	ClearBytes(&empty)
	ClearBytes(nil)
}

func TestConstantTimeCompare(t *testing.T) {
	a := []byte("ms12test")
	b := []byte("ms12test")
	c := []byte("ms12tesd")
	d := []byte("ms12tes")

	assert.True(t, ConstantTimeCompare(a, b))
	assert.False(t, ConstantTimeCompare(a, c))
	assert.False(t, ConstantTimeCompare(a, d))
	assert.False(t, ConstantTimeCompare(a, []byte{}))
	assert.True(t, ConstantTimeCompare(nil, []byte{}))
}

func TestSecureRandom(t *testing.T) {
	for _, size := range []int{16, 32, 64} {
		b, err := SecureRandom(size)
		require.NoError(t, err)
		assert.Len(t, b, size)
	}

	a, err := SecureRandom(32)
	require.NoError(t, err)
	b, err := SecureRandom(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
