package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
)

const actorContextKey = "actor_id"

// Claims carry the participant id in the subject.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens issued by the identity
// service.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for id. Used by tests and local tooling.
func (v *TokenVerifier) Issue(id kernel.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify returns the participant id of a valid token.
func (v *TokenVerifier) Verify(raw string) (kernel.UUID, error) {
	if raw == "" {
		return kernel.UUID{}, errs.NewUnauthenticatedError("missing token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return kernel.UUID{}, errs.NewUnauthenticatedErrorWithCause("invalid token", err)
	}

	id, err := kernel.UUIDFromString(claims.Subject)
	if err != nil {
		return kernel.UUID{}, errs.NewUnauthenticatedErrorWithCause("invalid subject", err)
	}
	return id, nil
}

// tokenFrom reads the bearer header, falling back to ?token= which is what
// browsers can send on a websocket upgrade.
func tokenFrom(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

// RequireParticipant rejects requests without a valid token and stores
// the participant id for handlers.
func RequireParticipant(verifier *TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := verifier.Verify(tokenFrom(c.Request()))
			if err != nil {
				return writeError(c, err)
			}
			c.Set(actorContextKey, id)
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) (kernel.UUID, error) {
	id, ok := c.Get(actorContextKey).(kernel.UUID)
	if !ok {
		return kernel.UUID{}, errs.NewUnauthenticatedError("no participant on request")
	}
	return id, nil
}
