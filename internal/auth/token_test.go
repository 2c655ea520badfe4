package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mikaelbfaa/cardshop/internal/domain/user"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)

	token, err := m.Issue("user-1", user.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, user.RoleAdmin, id.Role)
	assert.True(t, id.IsAdmin())
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager([]byte("test-secret"), -time.Minute)

	token, err := m.Issue("user-1", user.RoleCustomer)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewManager([]byte("secret-a"), time.Hour)
	verifier := NewManager([]byte("secret-b"), time.Hour)

	token, err := issuer.Issue("user-1", user.RoleCustomer)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)

	_, err := m.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
