// Package auth implements the stateless token codec and the request-scoped
// identity helpers. Tokens are compact HS256 JWS strings; nothing about them
// is stored server-side.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenValidity is the fixed lifetime of an issued token.
const TokenValidity = 24 * time.Hour

// MinSecretKeyLength is the shortest HMAC key NewTokenCodec accepts (256 bits).
const MinSecretKeyLength = 32

const (
	claimSubject   = "sub"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimID        = "jti"
)

// Claims is the decoded payload of a token.
type Claims struct {
	// ID is unique per issued token, so two tokens minted within the same
	// second still differ.
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Extra holds every claim other than sub, iat, exp and jti.
	Extra map[string]any
}

// Expired reports whether the token is no longer valid at now. A token whose
// expiry equals now is expired.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// TokenCodec issues and checks tokens with a single process-wide key. The key
// and clock are fixed at construction, so a codec is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

type CodecOption func(*TokenCodec)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec copies secret; later changes to the caller's slice have no
// effect. It fails with common.ErrSigningKeyUnavailable when the key is
// missing or shorter than MinSecretKeyLength.
func NewTokenCodec(secret []byte, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) < MinSecretKeyLength {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", common.ErrSigningKeyUnavailable, MinSecretKeyLength, len(secret))
	}

	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
		// Expiry is checked by Verify/IsValidFor so that callers can still
		// read the claims of an expired token.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue mints a token for user. Extra claims are merged into the payload;
// sub, iat, exp and jti always take the codec's values.
func (c *TokenCodec) Issue(user *models.User, extra map[string]any) (string, error) {
	if user == nil || user.UserName == "" {
		return "", errors.New("cannot issue token without a username")
	}

	now := c.now()
	claims := make(jwt.MapClaims, len(extra)+4)
	for k, v := range extra {
		claims[k] = v
	}
	claims[claimSubject] = user.UserName
	claims[claimIssuedAt] = jwt.NewNumericDate(now)
	claims[claimExpiresAt] = jwt.NewNumericDate(now.Add(TokenValidity))
	claims[claimID] = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

// Parse checks structure and signature only. It returns
// common.ErrSignatureMismatch for a bad signature and common.ErrMalformedToken
// for anything else that cannot be decoded. Expired tokens parse successfully.
func (c *TokenCodec) Parse(tokenString string) (*Claims, error) {
	mc := jwt.MapClaims{}
	_, err := c.parser.ParseWithClaims(tokenString, mc, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, common.ErrSignatureMismatch
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}

	return claimsFromMap(mc)
}

// Verify is Parse followed by the expiry check. An expired token yields its
// claims together with common.ErrTokenExpired.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Expired(c.now()) {
		return claims, common.ErrTokenExpired
	}
	return claims, nil
}

// IsValidFor reports whether tokenString is a live token whose subject is
// user. Malformed input simply yields false.
func (c *TokenCodec) IsValidFor(tokenString string, user *models.User) bool {
	if user == nil {
		return false
	}
	claims, err := c.Verify(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == user.UserName
}

func claimsFromMap(mc jwt.MapClaims) (*Claims, error) {
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrMalformedToken)
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", common.ErrMalformedToken)
	}
	iat, err := mc.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: bad issued-at", common.ErrMalformedToken)
	}

	id, _ := mc[claimID].(string)

	claims := &Claims{
		ID:        id,
		Subject:   sub,
		ExpiresAt: exp.Time,
		Extra:     map[string]any{},
	}
	if iat != nil {
		claims.IssuedAt = iat.Time
	}
	for k, v := range mc {
		switch k {
		case claimSubject, claimIssuedAt, claimExpiresAt, claimID:
		default:
			claims.Extra[k] = v
		}
	}
	return claims, nil
}
