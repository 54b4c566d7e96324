package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHash(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		digest, err := Hash("pw123")
		require.NoError(t, err)
		assert.NotEqual(t, "pw123", digest)
		assert.NotContains(t, digest, "pw123")

		cost, err := bcrypt.Cost([]byte(digest))
		require.NoError(t, err)
		assert.Equal(t, Cost, cost)
	})

	t.Run("salted - same input gives different digests", func(t *testing.T) {
		first, err := Hash("pw123")
		require.NoError(t, err)
		second, err := Hash("pw123")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("input longer than 72 bytes fails", func(t *testing.T) {
		_, err := Hash(strings.Repeat("a", 73))
		assert.Error(t, err)
	})
}

func TestVerify(t *testing.T) {
	digest, err := Hash("pw123")
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
		digest    string
		expected  bool
	}{
		{name: "correct password", plaintext: "pw123", digest: digest, expected: true},
		{name: "wrong password", plaintext: "pw124", digest: digest, expected: false},
		{name: "empty password", plaintext: "", digest: digest, expected: false},
		{name: "case differs", plaintext: "PW123", digest: digest, expected: false},
		{name: "malformed digest", plaintext: "pw123", digest: "not-a-hash", expected: false},
		{name: "empty digest", plaintext: "pw123", digest: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Verify(tt.plaintext, tt.digest))
		})
	}
}
