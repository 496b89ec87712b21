package users_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// TestIdentity is a simple implementation of the Identity interface for testing
type TestIdentity struct {
	id    string
	email string
	role  string
}

func (t TestIdentity) ID() string    { return t.id }
func (t TestIdentity) Email() string { return t.email }
func (t TestIdentity) Role() string  { return t.role }

// MockTokenService implements users.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueAccess(identity users.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IssueRefresh(identity users.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IssuePair(identity users.Identity) (*users.TokenPair, error) {
	args := m.Called(identity)
	if pair, ok := args.Get(0).(*users.TokenPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string, expected users.TokenUse) (users.AuthClaims, error) {
	args := m.Called(tokenString, expected)
	if claims, ok := args.Get(0).(users.AuthClaims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuthenticator implements users.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, msg users.RegisterUserMessage) (*users.User, error) {
	args := m.Called(ctx, msg)
	if user, ok := args.Get(0).(*users.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (*users.TokenPair, error) {
	args := m.Called(ctx, email, password)
	if pair, ok := args.Get(0).(*users.TokenPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) Refresh(ctx context.Context, refreshToken string) (*users.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if pair, ok := args.Get(0).(*users.TokenPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) CurrentUser(ctx context.Context, subject string) (*users.User, error) {
	args := m.Called(ctx, subject)
	if user, ok := args.Get(0).(*users.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLogger implements users.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// setupTestDB opens a private in-memory sqlite database with the schema
// migrations applied. Every call gets its own database so tests never share
// state.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := users.OpenDB(dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	require.NoError(t, users.RunMigrations(context.Background(), db))

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
