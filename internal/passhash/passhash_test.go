package passhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("pw1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "pw1", hash, "the hash must not contain the raw password")

	assert.NoError(t, Compare("pw1", hash))
}

func TestCompareMismatch(t *testing.T) {
	hash, err := Hash("pw1")
	require.NoError(t, err)

	err = Compare("wrong", hash)
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestHashesAreSalted(t *testing.T) {
	first, err := Hash("pw1")
	require.NoError(t, err)
	second, err := Hash("pw1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ by salt")
}
