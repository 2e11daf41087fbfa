package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"inventory-backend/internal/apps/user/models"
	"inventory-backend/pkg/secure"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepo struct {
	mu    sync.Mutex
	users []models.User
	err   error
}

func (r *fakeRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users = append(r.users, *user)
	return nil
}

func (r *fakeRepo) find(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *fakeRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *fakeRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *fakeRepo) FindAll(context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.User(nil), r.users...), r.err
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeOTP accepts one code per identifier and consumes it
type fakeOTP struct {
	codes map[string]string
	calls int
}

func (o *fakeOTP) Validate(_ context.Context, identifier, code string) bool {
	o.calls++
	if o.codes[identifier] == code {
		delete(o.codes, identifier)
		return true
	}
	return false
}

type fakeTokens struct{ err error }

func (f fakeTokens) Generate(userID, role string) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "token-" + role + "-" + userID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func newTestService(repo *fakeRepo, otp *fakeOTP, tokens TokenIssuer) UserService {
	return NewUserService(repo, otp, tokens, 4, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func registerRequest() models.RegisterRequest {
	return models.RegisterRequest{
		Username: " alice ",
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
		OTP:      "123456",
	}
}

func TestRegister(t *testing.T) {
	repo := &fakeRepo{}
	otp := &fakeOTP{codes: map[string]string{"alice@example.com": "123456"}}
	svc := newTestService(repo, otp, fakeTokens{})

	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.Equal(t, models.RoleUser, resp.Role)
	assert.NotEqual(t, uuid.Nil, resp.ID)

	require.Len(t, repo.users, 1)
	assert.NotEqual(t, "s3cret-pass", repo.users[0].PasswordHash)
	assert.NoError(t, secure.CheckPassword(repo.users[0].PasswordHash, "s3cret-pass"))
}

func TestRegisterSelfRequestedAdminIsDowngraded(t *testing.T) {
	repo := &fakeRepo{}
	otp := &fakeOTP{codes: map[string]string{"alice@example.com": "123456"}}
	req := registerRequest()
	req.Role = models.RoleAdmin

	resp, err := newTestService(repo, otp, fakeTokens{}).Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, resp.Role)
	require.Len(t, repo.users, 1)
	assert.Equal(t, models.RoleUser, repo.users[0].Role)
}

func TestRegisterConfiguredAdmin(t *testing.T) {
	otp := &fakeOTP{codes: map[string]string{"alice@example.com": "123456", "bob@example.com": "654321"}}
	svc := NewUserService(&fakeRepo{}, otp, fakeTokens{}, 4, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithAdminEmails(" ALICE@example.com "))

	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Role)

	bob := models.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "s3cret-pass", OTP: "654321", Role: models.RoleAdmin}
	resp, err = svc.Register(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, resp.Role)
}

func TestRegisterInvalidOTP(t *testing.T) {
	repo := &fakeRepo{}
	otp := &fakeOTP{codes: map[string]string{"alice@example.com": "123456"}}
	req := registerRequest()
	req.OTP = "654321"

	_, err := newTestService(repo, otp, fakeTokens{}).Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Empty(t, repo.users)
}

func TestRegisterTakenDoesNotConsumeOTP(t *testing.T) {
	repo := &fakeRepo{users: []models.User{{ID: uuid.New(), Username: "alice", Email: "other@example.com"}}}
	otp := &fakeOTP{codes: map[string]string{"alice@example.com": "123456"}}

	_, err := newTestService(repo, otp, fakeTokens{}).Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Zero(t, otp.calls)
	assert.Contains(t, otp.codes, "alice@example.com")

	repo = &fakeRepo{users: []models.User{{ID: uuid.New(), Username: "bob", Email: "alice@example.com"}}}
	_, err = newTestService(repo, otp, fakeTokens{}).Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterStoreFailure(t *testing.T) {
	dbErr := errors.New("connection refused")
	otp := &fakeOTP{codes: map[string]string{"alice@example.com": "123456"}}

	_, err := newTestService(&fakeRepo{err: dbErr}, otp, fakeTokens{}).Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrUserExists)
}

func TestLogin(t *testing.T) {
	hash, err := secure.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	id := uuid.New()
	repo := &fakeRepo{users: []models.User{{ID: id, Username: "alice", Email: "alice@example.com", PasswordHash: hash, Role: models.RoleAdmin}}}
	svc := newTestService(repo, &fakeOTP{}, fakeTokens{})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "token-admin-"+id.String(), resp.AccessToken)
	assert.Equal(t, "alice", resp.User.Username)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginTokenFailure(t *testing.T) {
	hash, err := secure.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	repo := &fakeRepo{users: []models.User{{ID: uuid.New(), Username: "alice", PasswordHash: hash, Role: models.RoleUser}}}

	_, err = newTestService(repo, &fakeOTP{}, fakeTokens{err: errors.New("signing failed")}).
		Login(context.Background(), models.LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetListDeleteUsers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	repo := &fakeRepo{users: []models.User{
		{ID: a, Username: "alice", Email: "alice@example.com", PasswordHash: "h", Role: models.RoleAdmin},
		{ID: b, Username: "bob", Email: "bob@example.com", PasswordHash: "h", Role: models.RoleUser},
	}}
	svc := newTestService(repo, &fakeOTP{}, fakeTokens{})
	ctx := context.Background()

	got, err := svc.GetUserByID(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = svc.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	all, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.DeleteUser(ctx, a))
	assert.ErrorIs(t, svc.DeleteUser(ctx, a), ErrUserNotFound)

	all, err = svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b, all[0].ID)
}
