package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/faceapi/backend/internal/config"
	"github.com/faceapi/backend/internal/db"
	"github.com/faceapi/backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTypeAccess  = "access_token"
	TokenTypeRefresh = "refresh_token"
)

var (
	ErrEmailTaken           = errors.New("email already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrWrongPassword        = errors.New("password incorrect")
	ErrTokenInvalid         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrRefreshTokenNotFound = errors.New("refresh token not available")
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
	ErrMisconfigured        = errors.New("auth config invalid")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	ConsumeQuota(ctx context.Context, userID string) (bool, error)
}

// Claims is the decoded token payload. Field names on the wire match the
// persisted user document: subject id, email, the subject's creation time
// and the token kind.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users              UserStore
	jwtSecret          []byte
	accessTTL          time.Duration
	defaultRefreshMins int
	defaultQuota       int
	log                *logrus.Logger
	now                func() time.Time
}

func NewAuthService(users UserStore, cfg config.AuthConfig, log *logrus.Logger) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}
	if cfg.AccessTTLMins <= 0 || cfg.DefaultRefreshTTLMins <= 0 {
		return nil, fmt.Errorf("%w: token TTLs must be positive", ErrMisconfigured)
	}
	if cfg.DefaultAPIQuota < 0 {
		return nil, fmt.Errorf("%w: DEFAULT_API_QUOTA must not be negative", ErrMisconfigured)
	}

	return &AuthService{
		users:              users,
		jwtSecret:          []byte(cfg.JWTSecret),
		accessTTL:          time.Duration(cfg.AccessTTLMins) * time.Minute,
		defaultRefreshMins: cfg.DefaultRefreshTTLMins,
		defaultQuota:       cfg.DefaultAPIQuota,
		log:                log,
		now:                time.Now,
	}, nil
}

// HashPassword enforces the password policy before hashing. Two calls with
// the same plaintext return different hashes (bcrypt salts internally).
func (s *AuthService) HashPassword(password string) (string, error) {
	if err := model.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches the stored hash. A
// mismatch is a false, never an error.
func (s *AuthService) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if err := model.ValidateEmail(email); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	user := &model.User{
		ID:                  uuid.NewString(),
		Name:                name,
		Email:               email,
		PasswordHash:        hash,
		MaxRefreshTokenMins: s.defaultRefreshMins,
		APIQuota:            s.defaultQuota,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.Infof("user registered: %s", created.Email)
	return created, nil
}

// Login verifies credentials and issues a fresh token pair. The refresh
// token is persisted on the user row, superseding any previous one.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", err
	}

	if !s.CheckPassword(password, user.PasswordHash) {
		return "", "", ErrWrongPassword
	}

	accessToken, err := s.IssueAccessToken(user)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.IssueRefreshToken(user)
	if err != nil {
		return "", "", err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return "", "", err
	}

	s.log.Infof("user logged in: %s", user.Email)
	return accessToken, refreshToken, nil
}

func (s *AuthService) IssueAccessToken(user *model.User) (string, error) {
	return s.issueToken(user, TokenTypeAccess, s.accessTTL)
}

func (s *AuthService) IssueRefreshToken(user *model.User) (string, error) {
	mins := user.MaxRefreshTokenMins
	if mins <= 0 {
		mins = s.defaultRefreshMins
	}
	return s.issueToken(user, TokenTypeRefresh, time.Duration(mins)*time.Minute)
}

func (s *AuthService) issueToken(user *model.User, kind string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies the signature and expiry. Expiry is checked
// explicitly against the claim in addition to the library's own
// enforcement; the two must agree.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.ExpiresAt == nil || claims.IssuedAt == nil || !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		return nil, ErrTokenInvalid
	}
	if s.now().After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// RotateRefreshToken exchanges a refresh token for a new access token. Only
// the single refresh token currently stored for the user is accepted; a
// superseded token is rejected even though its signature is still valid.
// The refresh token itself is not re-issued here.
func (s *AuthService) RotateRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if err := model.ValidateRefreshToken(refreshToken); err != nil {
		return "", err
	}

	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", ErrTokenInvalid
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrRefreshTokenNotFound
		}
		return "", err
	}

	if user.RefreshToken != refreshToken {
		return "", ErrRefreshTokenMismatch
	}

	return s.IssueAccessToken(user)
}

// ExtractIdentity validates a bearer credential for protected endpoints.
// Refresh tokens are not usable as bearer credentials.
func (s *AuthService) ExtractIdentity(bearerToken string) (*Claims, error) {
	claims, err := s.ValidateToken(bearerToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
