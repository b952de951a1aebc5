package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(t *testing.T) *BcryptAuthenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	a, err := NewBcryptAuthenticator("admin", string(hash))
	require.NoError(t, err)
	return a
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()

	assert.NoError(t, a.Authenticate(ctx, "admin", "s3cret"))
	assert.ErrorIs(t, a.Authenticate(ctx, "admin", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, a.Authenticate(ctx, "root", "s3cret"), ErrInvalidCredentials)
	assert.ErrorIs(t, a.Authenticate(ctx, "", ""), ErrInvalidCredentials)
}

func TestAuthenticateCanceledContext(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Authenticate(ctx, "admin", "s3cret"), context.Canceled)
}

func TestNewBcryptAuthenticatorValidation(t *testing.T) {
	_, err := NewBcryptAuthenticator("", "$2a$10$abc")
	assert.Error(t, err)

	_, err = NewBcryptAuthenticator("admin", "plain-text-password")
	assert.Error(t, err, "明文密码不能作为哈希")
}
