// Copyright (c) 2026 Hireline. All rights reserved.

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireline/hireline/internal/platform/sec"
)

/*
TestHashPassword_Roundtrip verifies that a hashed password verifies against
the original and rejects anything else.
*/
func TestHashPassword_Roundtrip(t *testing.T) {
	hash, err := sec.HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	// The plaintext must never survive hashing.
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, sec.CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, sec.CheckPasswordHash("wrong-pass", hash))
	assert.False(t, sec.CheckPasswordHash("", hash))
}

/*
TestHashPassword_Salted verifies that two hashes of the same input differ
(bcrypt embeds a random salt per call).
*/
func TestHashPassword_Salted(t *testing.T) {
	first, err := sec.HashPassword("s3cret-pass")
	require.NoError(t, err)

	second, err := sec.HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both still verify despite differing.
	assert.True(t, sec.CheckPasswordHash("s3cret-pass", first))
	assert.True(t, sec.CheckPasswordHash("s3cret-pass", second))
}

/*
TestCheckPasswordHash_MalformedHash verifies that garbage stored hashes report
a mismatch instead of panicking.
*/
func TestCheckPasswordHash_MalformedHash(t *testing.T) {
	assert.False(t, sec.CheckPasswordHash("s3cret-pass", "not-a-bcrypt-hash"))
	assert.False(t, sec.CheckPasswordHash("s3cret-pass", ""))
}
