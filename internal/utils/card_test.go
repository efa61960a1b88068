package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestFingerprintCard(t *testing.T) {
	fp, err := FingerprintCard("4111 1111 1111 1111", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotContains(t, fp, "4111111111111111")
	assert.True(t, MatchCard(fp, "4111-1111-1111-1111"))
	assert.False(t, MatchCard(fp, "4111111111111112"))
}

func TestLastFour(t *testing.T) {
	assert.Equal(t, "4242", LastFour("4242 4242 4242 4242"))
	assert.Equal(t, "12", LastFour("12"))
}
