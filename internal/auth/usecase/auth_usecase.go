package usecase

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	authdomain "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/auth/domain"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// AuthUsecase verifies callers. Sessions are issued by the web app; this
// service only checks its HS256 access tokens and the internal service key.
type AuthUsecase interface {
	ValidateToken(tokenString string) (*authdomain.Principal, error)
	ValidateServiceKey(key string) (*authdomain.Principal, error)
	// IssueToken signs an access token for userID, for tooling and tests.
	IssueToken(userID string, ttl time.Duration) (string, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	config *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(cfg *config.Config) AuthUsecase {
	return &authUsecase{config: cfg}
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.Principal, error) {
	if u.config.JWTSecret == "" {
		return nil, authdomain.ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", authdomain.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, authdomain.ErrInvalidClaims
	}

	// The web app puts the user id in "sub"; older tokens used "user_id".
	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return nil, authdomain.ErrInvalidClaims
	}

	return &authdomain.Principal{UserID: userID}, nil
}

func (u *authUsecase) ValidateServiceKey(key string) (*authdomain.Principal, error) {
	if u.config.ServiceKey == "" || key == "" {
		return nil, authdomain.ErrInvalidServiceKey
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(u.config.ServiceKey)) != 1 {
		return nil, authdomain.ErrInvalidServiceKey
	}
	return &authdomain.Principal{Service: true}, nil
}

func (u *authUsecase) IssueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     userID,
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}
