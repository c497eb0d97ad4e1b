package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
	TokenTypeReset  TokenType = "reset"
)

// ActorType mirrors the principal kinds the auth middleware resolves.
type ActorType string

const (
	ActorTypeUser         ActorType = "user"
	ActorTypeOrganization ActorType = "organization"
	ActorTypeAdmin        ActorType = "admin"
)

// Claims defines the token payload for our application.
type Claims struct {
	SubjectID int32     `json:"subject_id"`
	Actor     ActorType `json:"actor"`
	Email     string    `json:"email,omitempty"`
	Type      TokenType `json:"type"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateAccessToken(subjectID int32, actor ActorType, email string) (string, error)
	GenerateResetToken(subjectID int32, email string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	ValidateResetToken(tokenString string) (*Claims, error)
}

type tokenManager struct {
	secret       []byte
	accessExpiry time.Duration
	resetExpiry  time.Duration
}

func NewTokenManager(secret string, accessExpiryMinutes, resetExpiryMinutes int) TokenManager {
	return &tokenManager{
		secret:       []byte(secret),
		accessExpiry: time.Duration(accessExpiryMinutes) * time.Minute,
		resetExpiry:  time.Duration(resetExpiryMinutes) * time.Minute,
	}
}

func (m *tokenManager) GenerateAccessToken(subjectID int32, actor ActorType, email string) (string, error) {
	claims := Claims{
		SubjectID: subjectID,
		Actor:     actor,
		Email:     email,
		Type:      TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(subjectID)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "bloodbridge",
			ID:        generateJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) GenerateResetToken(subjectID int32, email string) (string, error) {
	claims := Claims{
		SubjectID: subjectID,
		Actor:     ActorTypeUser,
		Email:     email,
		Type:      TokenTypeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(subjectID)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.resetExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "bloodbridge",
			ID:        generateJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (m *tokenManager) ValidateResetToken(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeReset {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (m *tokenManager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.SubjectID == 0 && claims.Subject != "" {
			id, _ := strconv.Atoi(claims.Subject)
			claims.SubjectID = int32(id)
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Simple unique ID generator.
func generateJTI() string {
	return strconv.FormatInt(time.Now().UnixNano(), 16)
}
