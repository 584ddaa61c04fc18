package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleClaims() Claims {
	return Claims{
		AccountID: 7,
		FirstName: "Happy",
		LastName:  "Camper",
		Email:     "happy@340.edu",
		Role:      models.RoleEmployee,
	}
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := IssueToken(sampleClaims(), secret, time.Hour)
	require.NoError(t, err)

	got, err := VerifyToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, sampleClaims(), got)
}

func TestVerifyToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := IssueToken(sampleClaims(), secret, -1*time.Second)
	require.NoError(t, err)

	_, err = VerifyToken(tok, secret)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
	assert.True(t, errors.Is(err, common.ErrTokenExpired))
}

// Not parallel: moves the package clock.
func TestVerifyToken_ExpiresExactlyAfterTTL(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now := base
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })

	secret := []byte("clock-secret")
	tok, err := IssueToken(sampleClaims(), secret, TokenTTL)
	require.NoError(t, err)

	now = base.Add(TokenTTL - time.Second)
	_, err = VerifyToken(tok, secret)
	require.NoError(t, err, "token must still be valid one second before expiry")

	now = base.Add(TokenTTL)
	_, err = VerifyToken(tok, secret)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := IssueToken(sampleClaims(), []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(tok, []byte("wrong-secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerifyToken_MalformedString(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := VerifyToken(s, []byte("k"))
		assert.ErrorIs(t, err, common.ErrInvalidToken, "input %q", s)
	}
}

func TestVerifyToken_RejectsEverySingleBitFlip(t *testing.T) {
	t.Parallel()

	secret := []byte("bitflip-secret")
	tok, err := IssueToken(sampleClaims(), secret, time.Hour)
	require.NoError(t, err)

	raw := []byte(tok)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			mutated[i] ^= 1 << bit

			if _, err := VerifyToken(string(mutated), secret); err == nil {
				t.Fatalf("mutation at byte %d bit %d was accepted", i, bit)
			}
		}
	}
}

func TestVerifyToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("alg-secret")
	now := time.Now()
	claims := tokenClaims{
		Claims: sampleClaims(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)
	_, err = VerifyToken(hs512, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = VerifyToken(none, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerifyToken_RequiresExpiry(t *testing.T) {
	t.Parallel()

	secret := []byte("exp-secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{Claims: sampleClaims()}).SignedString(secret)
	require.NoError(t, err)

	_, err = VerifyToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerifyToken_UnknownRole(t *testing.T) {
	t.Parallel()

	secret := []byte("role-secret")
	c := sampleClaims()
	c.Role = models.Role("Superuser")

	tok, err := IssueToken(c, secret, time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(tok, secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
	assert.True(t, strings.Contains(err.Error(), "unknown role"))
}

func TestIssueToken_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := IssueToken(sampleClaims(), nil, time.Hour)
	require.Error(t, err)
}

func TestCodec(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("", TokenTTL)
	require.Error(t, err)
	_, err = NewCodec("s", 0)
	require.Error(t, err)

	c, err := NewCodec("codec-secret", TokenTTL)
	require.NoError(t, err)
	assert.Equal(t, 3600*time.Second, c.TTL())

	tok, err := c.Issue(sampleClaims())
	require.NoError(t, err)

	got, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, sampleClaims(), got)

	rotated, err := NewCodec("rotated-secret", TokenTTL)
	require.NoError(t, err)
	_, err = rotated.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClaimsFromAccount_OmitsPassword(t *testing.T) {
	t.Parallel()

	a := &models.Account{ID: 3, FirstName: "A", LastName: "B", Email: "a@b.com", PasswordHash: "$2a$10$x", Role: models.RoleClient}
	c := ClaimsFromAccount(a)

	assert.Equal(t, Claims{AccountID: 3, FirstName: "A", LastName: "B", Email: "a@b.com", Role: models.RoleClient}, c)

	tok, err := IssueToken(c, []byte("s"), time.Hour)
	require.NoError(t, err)
	assert.NotContains(t, tok, "$2a$")
}
