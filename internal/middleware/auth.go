package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token constants shared by issuance and validation.
const (
	TokenIssuer   = "recipebox-api"
	TokenAudience = "recipebox-client"
	TokenCookie   = "token"
)

var errTokenRevoked = errors.New("token has been revoked")

// Claims are the JWT claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid subject claim")
	}
	return uint(id), nil
}

// TokenManager issues, validates and revokes access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
}

// NewTokenManager returns a TokenManager. rdb may be nil, in which case
// revocation is not tracked.
func NewTokenManager(secret string, ttl time.Duration, rdb *redis.Client) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, rdb: rdb}
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new token for userID.
func (m *TokenManager) Issue(userID uint) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates signature, issuer, audience, expiry and revocation.
func (m *TokenManager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	if claims.ID != "" && m.rdb != nil {
		n, err := m.rdb.Exists(ctx, revokedKey(claims.ID)).Result()
		if err == nil && n > 0 {
			return nil, errTokenRevoked
		}
	}
	return claims, nil
}

// Revoke blacklists a token id until the token would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.rdb == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return m.rdb.Set(ctx, revokedKey(claims.ID), "1", ttl).Err()
}

func revokedKey(jti string) string {
	return "blacklist:" + jti
}

// ExtractToken reads the token from the auth cookie, falling back to a
// Bearer Authorization header.
func ExtractToken(c *fiber.Ctx) string {
	if token := c.Cookies(TokenCookie); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (m *TokenManager) authenticate(c *fiber.Ctx) (*Claims, uint, error) {
	tokenString := ExtractToken(c)
	if tokenString == "" {
		return nil, 0, models.NewUnauthorizedError("Authentication required")
	}
	claims, err := m.Parse(c.UserContext(), tokenString)
	if err != nil {
		if errors.Is(err, errTokenRevoked) {
			return nil, 0, models.NewUnauthorizedError("Token has been revoked")
		}
		return nil, 0, models.NewUnauthorizedError("Invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, 0, models.NewUnauthorizedError("Invalid token subject")
	}
	return claims, userID, nil
}

func setIdentity(c *fiber.Ctx, claims *Claims, userID uint) {
	c.Locals("userID", userID)
	c.Locals("claims", claims)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

// Required rejects requests without a valid token.
func (m *TokenManager) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, userID, err := m.authenticate(c)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		setIdentity(c, claims, userID)
		return c.Next()
	}
}

// Optional resolves the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (m *TokenManager) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, userID, err := m.authenticate(c); err == nil {
			setIdentity(c, claims, userID)
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated caller, or 0 for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// CurrentClaims returns the validated token claims, if any.
func CurrentClaims(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals("claims").(*Claims)
	return claims
}
