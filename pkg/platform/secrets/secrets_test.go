package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "timeclock/pkg/domain-errors"
)

func TestGenerate(t *testing.T) {
	s1, err := Generate()
	require.NoError(t, err)
	s2, err := Generate()
	require.NoError(t, err)

	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2, "secrets must be unique")
}

func TestHashAndVerify(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		secret, err := Generate()
		require.NoError(t, err)

		hash, err := Hash(secret)
		require.NoError(t, err)
		assert.NotEqual(t, secret, hash)

		assert.NoError(t, Verify(secret, hash))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		hash, err := Hash("device-secret")
		require.NoError(t, err)

		err = Verify("other-secret", hash)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("empty secret rejected at hash time", func(t *testing.T) {
		_, err := Hash("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
