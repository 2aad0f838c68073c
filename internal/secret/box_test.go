package secret_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ascendia/internal/secret"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestBox_SealOpen(t *testing.T) {
	box, err := secret.NewBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("client-secret")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "client-secret")
	assert.Contains(t, sealed, ":")

	got, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "client-secret", got)
}

func TestBox_SealUsesFreshNonce(t *testing.T) {
	box, err := secret.NewBox(testKey)
	require.NoError(t, err)

	a, err := box.Seal("same")
	require.NoError(t, err)

	b, err := box.Seal("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNewBox_InvalidKey(t *testing.T) {
	type testCase struct {
		name string
		key  string
	}

	tests := []testCase{
		{name: "NotHex", key: "zz"},
		{name: "TooShort", key: "0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := secret.NewBox(tt.key)
			assert.Error(t, err)
		})
	}
}

func TestBox_Open_Malformed(t *testing.T) {
	box, err := secret.NewBox(testKey)
	require.NoError(t, err)

	for _, v := range []string{"", "nocolon", ":abcd", "abcd:", "zz:zz"} {
		_, err := box.Open(v)
		assert.ErrorIs(t, err, secret.ErrMalformed, v)
	}
}

func TestBox_Open_Tampered(t *testing.T) {
	box, err := secret.NewBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("api-key")
	require.NoError(t, err)

	nonce, data, _ := strings.Cut(sealed, ":")
	flipped := []byte(data)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}

	_, err = box.Open(nonce + ":" + string(flipped))
	assert.Error(t, err)
}
