package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"expense_tracker/internal/models"
	"expense_tracker/internal/repository"
)

const (
	tokenTTL          = 7 * 24 * time.Hour
	minPasswordLength = 6
)

// AuthService handles user auth logic.
type AuthService struct {
	users      repository.UserRepo
	signingKey []byte
	now        func() time.Time
}

func NewAuthService(users repository.UserRepo, signingKey string) *AuthService {
	return &AuthService{users: users, signingKey: []byte(signingKey), now: time.Now}
}

// Claims defines JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// SignUp hashes the password and creates a new user.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return models.User{}, validationError("name, email, and password are required")
	}
	if !validEmail(email) {
		return models.User{}, validationError("email is not a valid address")
	}
	if len(password) < minPasswordLength {
		return models.User{}, validationError("password must be at least %d characters long", minPasswordLength)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return models.User{}, dependencyError("lookup user", err)
	}
	if existing != nil {
		return models.User{}, ErrConflict
	}

	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{Name: name, Email: email, PasswordHash: hash, CreatedAt: s.now().UTC()}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, ErrConflict
		}
		return models.User{}, dependencyError("create user", err)
	}
	u.ID = id
	u.PasswordHash = ""
	return u, nil
}

// validEmail accepts a bare addr-spec: no display name, no angle brackets, no line breaks.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// GenerateToken validates credentials and returns a signed JWT with the user.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) GenerateToken(ctx context.Context, email, password string) (string, models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", models.User{}, validationError("email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", models.User{}, dependencyError("lookup user", err)
	}
	if u == nil {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID, u.Email)
	if err != nil {
		return "", models.User{}, err
	}
	public := *u
	public.PasswordHash = ""
	return token, public, nil
}

// ParseToken verifies signature, algorithm and expiry and returns the claims.
func (s *AuthService) ParseToken(accessToken string) (Claims, error) {
	if strings.TrimSpace(accessToken) == "" {
		return Claims{}, ErrMissingToken
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(accessToken, &claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) issueToken(userID int64, email string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Email:  email,
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", validationError("cannot hash password: %v", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
