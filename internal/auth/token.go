package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator проверяет токен доступа
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims содержимое токена; Subject - ID автора
type TokenClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthorID разбирает ID автора из Subject
func (c *TokenClaims) AuthorID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("author id (sub) missing in token")
	}
	return id, nil
}

// JWTIssuer выпускает токены HS256
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

// NewJWTIssuer создает выпускающего токены
func NewJWTIssuer(secret, issuer string, ttl time.Duration, clk clock.Clock) *JWTIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, clock: clk}
}

// Issue подписывает токен для автора
func (i *JWTIssuer) Issue(author *domain.Author) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)
	claims := TokenClaims{
		Email: author.Email,
		Role:  author.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(author.ID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// DefaultTokenValidator проверяет подпись HMAC и сроки токена
type DefaultTokenValidator struct {
	Secret []byte
	Issuer string // пусто - не проверять
	Clock  clock.Clock
}

func (v *DefaultTokenValidator) Validate(tokenString string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Clock != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Clock.Now))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, errors.New("malformed token")
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, errors.New("invalid token signature")
		} else if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, errors.New("token expired")
		} else {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}
