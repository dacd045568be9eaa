package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	users map[string]*User
}

func (f *fakeRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeRepo) CreateUser(ctx context.Context, username, passwordHash string, role Role) (int64, error) {
	if _, exists := f.users[username]; exists {
		return 0, ErrUsernameTaken
	}
	id := int64(len(f.users) + 1)
	f.users[username] = &User{ID: id, Username: username, PasswordHash: passwordHash, Role: role}
	return id, nil
}

func (f *fakeRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	for _, u := range f.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return ErrUserNotFound
}

func newTestService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{users: map[string]*User{}}
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	repo.users["amina"] = &User{ID: 7, Username: "amina", PasswordHash: hash, Role: RoleOwner}
	return NewService(repo, "test-secret", time.Hour), repo
}

func TestAuthenticateIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Authenticate(context.Background(), "amina", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "amina", resp.Username)
	assert.Equal(t, RoleOwner, resp.Role)
	assert.NotEmpty(t, resp.Token)

	actor, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "7", actor.ID)
	assert.Equal(t, "amina", actor.Username)
	assert.Equal(t, string(RoleOwner), actor.Role)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "amina", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Authenticate(context.Background(), "amina", "hunter2")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.VerifyToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestProvisionUserHashesPasswordAndRejectsDuplicates(t *testing.T) {
	svc, repo := newTestService(t)

	user, err := svc.ProvisionUser(context.Background(), CreateUserRequest{
		Username: "hodan", Password: "s3cret99", Role: RoleCashier,
	})
	require.NoError(t, err)
	assert.Equal(t, RoleCashier, user.Role)

	_, err = svc.Authenticate(context.Background(), "hodan", "s3cret99")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret99", repo.users["hodan"].PasswordHash)

	_, err = svc.ProvisionUser(context.Background(), CreateUserRequest{
		Username: "hodan", Password: "another1", Role: RoleCashier,
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestResetPasswordReplacesCredential(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.ResetPassword(context.Background(), 7, "newpass1"))
	_, err := svc.Authenticate(context.Background(), "amina", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "amina", "newpass1")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(context.Background(), 99, "whatever1"), ErrUserNotFound)
}

func TestVerifyTokenRejectsForged(t *testing.T) {
	svc, _ := newTestService(t)
	other := NewService(&fakeRepo{users: map[string]*User{}}, "other-secret", time.Hour)

	resp, err := svc.Authenticate(context.Background(), "amina", "hunter2")
	require.NoError(t, err)

	_, err = other.VerifyToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
