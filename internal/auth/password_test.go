package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	req := require.New(t)
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery staple")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$2a$"))

	req.NoError(h.Verify(hash, "correct horse battery staple"))
	req.ErrorIs(h.Verify(hash, "wrong"), ErrPasswordMismatch)
}

func TestNewBcryptHasher_DefaultsLowCost(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
}
