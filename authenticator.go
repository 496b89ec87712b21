package users

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// RegisterUserMessage carries the fields of a registration request
type RegisterUserMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Auther orchestrates registration, login, and the refresh flow on top of
// the Users repository and the TokenService.
type Auther struct {
	repo      RepositoryManager
	tokens    TokenService
	logger    Logger
	dummyHash string
}

// Verify interface compliance
var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokens TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
		// verified against when a login email resolves to nothing, so a
		// miss costs the same as a hit
		dummyHash: RandomPasswordHash(),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// Register creates a new user record with a hashed password. The existence
// check is a fast path only; the storage UNIQUE constraint settles the race
// when two registrations carry the same email concurrently, and the losing
// insert surfaces as ErrEmailTaken without mutating state.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := s.repo.Users().ExistsByEmailTx(ctx, tx, msg.Email)
		if err != nil {
			return err
		}

		if exists {
			return ErrEmailTaken
		}

		hash, err := HashPassword(msg.Password)
		if err != nil {
			return err
		}

		user.Name = msg.Name
		user.Email = msg.Email
		user.PasswordHash = hash
		user.Department = msg.Department
		user.Role = msg.Role
		if user.Role == "" {
			user.Role = RoleEmployee
		}

		if user, err = s.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			s.logger.Error("Register failed", "email", NormalizeEmail(msg.Email), "error", err)
		}
		return nil, err
	}

	s.logger.Info("Registered user", "email", user.Email)

	return user, nil
}

// Login verifies credentials and issues a token pair bound to the user's
// email. Unknown email and wrong password both come back as
// ErrInvalidCredentials; the dummy verification keeps the two paths at the
// same cost so response timing does not enumerate accounts either.
func (s *Auther) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			VerifyPassword(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Login lookup failed", "error", err)
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(NewIdentityFromUser(user))
	if err != nil {
		s.logger.Error("Login token issuance failed", "error", err)
		return nil, err
	}

	return pair, nil
}

// Refresh validates a refresh token and reissues an access token for its
// subject. The refresh token is echoed back unchanged; there is no rotation
// and no server side revocation for it (see package doc).
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, TokenUseRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByEmail(ctx, claims.Subject())
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccess(NewIdentityFromUser(user))
	if err != nil {
		s.logger.Error("Refresh token issuance failed", "error", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
	}, nil
}

// CurrentUser resolves the user record behind a validated token subject
func (s *Auther) CurrentUser(ctx context.Context, subject string) (*User, error) {
	return s.repo.Users().GetByEmail(ctx, subject)
}
