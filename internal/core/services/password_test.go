package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordProducesVerifiableHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	parts := strings.Split(hash, ".")
	require.Len(t, parts, 2, "hash should be key.salt")
	assert.NotEmpty(t, parts[0])
	assert.NotEmpty(t, parts[1])

	assert.True(t, ComparePassword("s3cret", hash))
	assert.False(t, ComparePassword("wrong", hash))
}

func TestHashPasswordSaltsEveryHash(t *testing.T) {
	h1, err := HashPassword("s3cret")
	require.NoError(t, err)
	h2, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, ComparePassword("s3cret", h1))
	assert.True(t, ComparePassword("s3cret", h2))
}

func TestComparePasswordRejectsMalformedHash(t *testing.T) {
	assert.False(t, ComparePassword("s3cret", "not-a-hash"))
	assert.False(t, ComparePassword("s3cret", "zz.zz"))
	assert.False(t, ComparePassword("s3cret", ""))
}
