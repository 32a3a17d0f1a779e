package crypto

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandIntn(t *testing.T) {
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		n := RandIntn(4)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 4)
		seen[n] = true
	}

	require.Len(t, seen, 4)
}

func TestHMAC(t *testing.T) {
	a := HMAC(sha256.New, []byte("data"), []byte("k1"))
	require.Equal(t, a, HMAC(sha256.New, []byte("data"), []byte("k1")))
	require.NotEqual(t, a, HMAC(sha256.New, []byte("data"), []byte("k2")))
	require.Len(t, a, 64)
}
