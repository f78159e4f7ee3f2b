package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthService issues and checks the opaque API tokens the HTTP and RPC
// adapters turn into a domain.Identity.
type AuthService struct {
	repo       domain.UserRepository
	logger     *zap.Logger
	defaultTTL *time.Duration
}

func NewAuthService(repo domain.UserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, logger: logger.Named("auth")}
}

// SetDefaultTokenTTL applies ttl to logins that do not ask for their own
// expiry. Nil keeps such tokens valid until logout.
func (s *AuthService) SetDefaultTokenTTL(ttl *time.Duration) {
	s.defaultTTL = ttl
}

func (s *AuthService) Register(ctx context.Context, email, password string) (domain.User, error) {
	in := RegisterInput{Email: strings.ToLower(strings.TrimSpace(email)), Password: password}
	if err := validateInput(in); err != nil {
		return domain.User{}, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, domain.NewValidationError("email is already registered")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.repo.CreateUser(ctx, domain.User{Email: in.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			return domain.User{}, domain.NewValidationError("email is already registered")
		}
		return domain.User{}, err
	}
	s.logger.Info("user registered", zap.Uint("user_id", u.ID))
	return u, nil
}

// Bootstrap creates the first account on an empty database and is a no-op
// otherwise.
func (s *AuthService) Bootstrap(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return domain.NewValidationError("bootstrap email and password are required")
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = s.Register(ctx, email, password)
	return err
}

// Login checks credentials and issues a new API token. The plain token is
// returned once; only its hash is stored.
func (s *AuthService) Login(ctx context.Context, email, password, tokenName string, ttl *time.Duration) (domain.User, string, error) {
	u, err := s.authenticateEmailPassword(ctx, email, password)
	if err != nil {
		return domain.User{}, "", err
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.User{}, "", err
	}

	if ttl == nil {
		ttl = s.defaultTTL
	}
	var expiresAt *time.Time
	if ttl != nil {
		t := time.Now().UTC().Add(*ttl)
		expiresAt = &t
	}

	_, err = s.repo.CreateAPIToken(ctx, domain.APIToken{
		UserID:    u.ID,
		Name:      defaultString(tokenName, "cli"),
		TokenHash: hash,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	s.logger.Info("api token issued", zap.Uint("user_id", u.ID), zap.String("token_name", defaultString(tokenName, "cli")))
	return u, plain, nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, domain.NewAuthorizationError("")
	}
	apit, err := s.repo.GetAPITokenByTokenHash(ctx, hashToken(token))
	if err != nil {
		return domain.Identity{}, domain.NewAuthorizationError("unauthorized")
	}
	if apit.ExpiresAt != nil && apit.ExpiresAt.Before(time.Now().UTC()) {
		return domain.Identity{}, domain.NewAuthorizationError("token expired")
	}

	u, err := s.repo.GetUserByID(ctx, apit.UserID)
	if err != nil || u.AnonymizedAt != nil {
		return domain.Identity{}, domain.NewAuthorizationError("unauthorized")
	}
	return domain.Identity{User: u}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.repo.DeleteAPITokenByTokenHash(ctx, hashToken(token))
}

// Anonymize scrubs the caller's identity and revokes their tokens. Topics,
// nodes, connections, posts and interaction records they own are kept.
func (s *AuthService) Anonymize(ctx context.Context, actor domain.Identity) (domain.User, error) {
	if err := requireActor(actor); err != nil {
		return domain.User{}, err
	}
	u, err := s.repo.AnonymizeUser(ctx, actor.User.ID, fmt.Sprintf("deleted-%d@invalid", actor.User.ID))
	if err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user anonymized", zap.Uint("user_id", u.ID))
	return u, nil
}

func (s *AuthService) authenticateEmailPassword(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, domain.NewAuthorizationError("invalid credentials")
	}
	if u.AnonymizedAt != nil || u.PasswordHash == "" {
		return domain.User{}, domain.NewAuthorizationError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.NewAuthorizationError("invalid credentials")
	}
	return u, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}

func defaultString(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return input
}
