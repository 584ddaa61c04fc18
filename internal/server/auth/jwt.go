package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of a session token and of its cookie.
const TokenTTL = 3600 * time.Second

// timeNow is a seam for tests that need to move the clock.
var timeNow = time.Now

// Claims is the identity carried inside a session token. It mirrors
// models.Account without the password hash.
type Claims struct {
	AccountID int64       `json:"account_id"`
	FirstName string      `json:"account_firstname"`
	LastName  string      `json:"account_lastname"`
	Email     string      `json:"account_email"`
	Role      models.Role `json:"account_type"`
}

// ClaimsFromAccount builds a fresh claim set from a stored account.
func ClaimsFromAccount(a *models.Account) Claims {
	return Claims{
		AccountID: a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Role:      a.Role,
	}
}

type tokenClaims struct {
	Claims
	jwt.RegisteredClaims
}

// IssueToken signs claims with HS256. The token carries iat and
// exp = iat + ttl.
func IssueToken(claims Claims, secretKey []byte, ttl time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", errors.New("empty signing secret")
	}

	now := timeNow()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Claims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken checks signature, structure and expiry and returns the
// embedded claims. Every failure wraps common.ErrInvalidToken; expired
// tokens additionally wrap common.ErrTokenExpired.
func VerifyToken(tokenString string, secretKey []byte) (Claims, error) {
	if len(secretKey) == 0 {
		return Claims{}, fmt.Errorf("%w: empty signing secret", common.ErrInvalidToken)
	}

	tc := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, tc,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(timeNow),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return Claims{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, common.ErrInvalidToken
	}

	role, err := models.ParseRole(string(tc.Role))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if tc.AccountID <= 0 {
		return Claims{}, fmt.Errorf("%w: missing account id", common.ErrInvalidToken)
	}

	claims := tc.Claims
	claims.Role = role
	return claims, nil
}

// Codec binds the process-wide signing secret and token lifetime.
// Replacing the secret invalidates every outstanding token.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secretKey string, ttl time.Duration) (*Codec, error) {
	if secretKey == "" {
		return nil, errors.New("signing secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl %v", ttl)
	}
	return &Codec{secret: []byte(secretKey), ttl: ttl}, nil
}

func (c *Codec) Issue(claims Claims) (string, error) {
	return IssueToken(claims, c.secret, c.ttl)
}

func (c *Codec) Verify(token string) (Claims, error) {
	return VerifyToken(token, c.secret)
}

// TTL is the token lifetime, also used as the cookie Max-Age.
func (c *Codec) TTL() time.Duration { return c.ttl }
