package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock implementations ---

type mockUserRepo struct {
	byID map[string]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[string]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
		if existing.CPF == u.CPF {
			return ErrCPFTaken
		}
	}
	stored := *u
	m.byID[u.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return ErrNotFound
	}
	stored := *u
	m.byID[u.ID] = &stored
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type mockTokenIssuer struct {
	lastUserID string
	lastRole   Role
}

func (m *mockTokenIssuer) Issue(userID string, role Role) (string, error) {
	m.lastUserID = userID
	m.lastRole = role
	return "token-" + userID, nil
}

// --- Helpers ---

func registerTestUser(t *testing.T, svc *Service) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Yugi Muto",
		Email:    "yugi@example.com",
		Password: "heartofthecards",
		CPF:      "12345678901",
	})
	require.NoError(t, err)
	return u
}

// --- Tests ---

func TestRegister_Success(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo, &mockTokenIssuer{})

	u := registerTestUser(t, svc)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, RoleCustomer, u.Role)
	assert.NotEqual(t, "heartofthecards", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("heartofthecards")))
}

func TestRegister_MissingFields(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:  "Yugi Muto",
		Email: "yugi@example.com",
	})
	require.Error(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Impostor",
		Email:    "yugi@example.com",
		Password: "secret",
		CPF:      "98765432109",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_Success(t *testing.T) {
	issuer := &mockTokenIssuer{}
	svc := NewService(newMockUserRepo(), issuer)
	registered := registerTestUser(t, svc)

	token, u, err := svc.Login(context.Background(), "yugi@example.com", "heartofthecards")
	require.NoError(t, err)

	assert.Equal(t, "token-"+registered.ID, token)
	assert.Equal(t, registered.ID, u.ID)
	assert.Equal(t, RoleCustomer, issuer.lastRole)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})
	registerTestUser(t, svc)

	_, _, err := svc.Login(context.Background(), "yugi@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})

	// Unknown email and wrong password are indistinguishable to the caller.
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile_Empty(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})
	u := registerTestUser(t, svc)

	_, err := svc.UpdateProfile(context.Background(), u.ID, UpdateRequest{})
	require.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestUpdateProfile_ChangesNameAndEmail(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})
	u := registerTestUser(t, svc)

	name := "Yami Yugi"
	email := "yami@example.com"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, UpdateRequest{Name: &name, Email: &email})
	require.NoError(t, err)

	assert.Equal(t, "Yami Yugi", updated.Name)
	assert.Equal(t, "yami@example.com", updated.Email)
}

func TestUpdateProfile_RehashesPassword(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})
	u := registerTestUser(t, svc)

	password := "newsecret"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, UpdateRequest{Password: &password})
	require.NoError(t, err)

	assert.NotEqual(t, u.PasswordHash, updated.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newsecret")))

	_, _, err = svc.Login(context.Background(), "yugi@example.com", "newsecret")
	require.NoError(t, err)
}

func TestDelete_Self(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})
	u := registerTestUser(t, svc)

	err := svc.Delete(context.Background(), u.ID, u.ID)
	require.ErrorIs(t, err, ErrSelfDelete)
}

func TestDelete_Target(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo, &mockTokenIssuer{})
	u := registerTestUser(t, svc)

	err := svc.Delete(context.Background(), "admin-1", u.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.byID)
}

func TestDelete_TargetNotFound(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockTokenIssuer{})

	err := svc.Delete(context.Background(), "admin-1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
