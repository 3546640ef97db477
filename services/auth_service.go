package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/sovushik/SparkyFitness/internal/user"
)

// UserRepository is the storage surface behind auth and preferences.
type UserRepository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	PromoteToAdmin(ctx context.Context, email string) (bool, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*user.Preferences, error)
	UpsertPreferences(ctx context.Context, p *user.Preferences) error
}

const tokenLifetime = 24 * time.Hour

type AuthService struct {
	repo      UserRepository
	jwtSecret []byte
}

func NewAuthService(repo UserRepository, jwtSecret []byte) *AuthService {
	return &AuthService{repo: repo, jwtSecret: jwtSecret}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.NotValidf("password shorter than 8 characters")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return errors.NotValidf("password longer than 72 characters")
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errors.NotValidf("email %q", req.Email)
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, errors.Trace(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Annotate(err, "hashing password")
	}

	u := &user.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         user.RoleUser,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, errors.Trace(err)
	}

	if err := s.repo.UpsertPreferences(ctx, user.DefaultPreferences(u.ID)); err != nil {
		return nil, errors.Annotate(err, "creating default preferences")
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &user.AuthResponse{Token: token, User: u}, nil
}

// Login deliberately answers unknown emails and wrong passwords with the
// same error so responses don't reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.AuthResponse, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorizedf("invalid email or password")
		}
		return nil, errors.Trace(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.Unauthorizedf("invalid email or password")
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &user.AuthResponse{Token: token, User: u}, nil
}

func (s *AuthService) issueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.Annotate(err, "signing token")
	}

	return token, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	return u, errors.Trace(err)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *user.UpdateProfileRequest) (*user.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, errors.NotValidf("email %q", *req.Email)
		}
		u.Email = email
	}
	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, errors.Trace(err)
	}

	return u, nil
}

func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return errors.Trace(s.repo.DeleteUser(ctx, userID))
}

// EnsureAdmin promotes the configured admin account if it exists. Called
// at startup; a missing account just means nobody registered it yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}

	promoted, err := s.repo.PromoteToAdmin(ctx, normalizeEmail(email))
	if err != nil {
		return errors.Trace(err)
	}
	if promoted {
		log.Info().Str("email", email).Msg("promoted admin account")
	}

	return nil
}
