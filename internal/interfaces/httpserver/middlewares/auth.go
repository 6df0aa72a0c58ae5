package middlewares

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"leadchat-server/services/routing-api/internal/interfaces/httpserver/responses"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

const principalContextKey = "principal"

// Principal is the authenticated caller of a protected route. Dashboard and
// ops callers authenticate with an HS256 service token minted by the identity
// provider.
type Principal struct {
	ID    string
	Name  string
	Roles []string
}

type serviceTokenClaims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// ServiceAuthMiddleware validates the bearer service token and stores the
// principal in the gin context.
func ServiceAuthMiddleware(secret, issuer string, skew time.Duration, logger zerolog.Logger) gin.HandlerFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(skew),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c)
		if !ok {
			logger.Warn().
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Msg("unauthenticated request")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "2cb8df69-a1c4-4a07-d3d5-8e9f0a1b2c33")
			return
		}

		claims := &serviceTokenClaims{}
		if _, err := parser.ParseWithClaims(rawToken, claims, keyFunc); err != nil {
			logger.Warn().Err(err).Msg("service token validation failed")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "invalid service token", "3dc9e07a-b2d5-4b18-e4e6-9f0a1b2c3d44")
			return
		}
		if claims.Subject == "" {
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "service token has no subject", "4eda118b-c3e6-4c29-f5f7-0a1b2c3d4e55")
			return
		}

		c.Set(principalContextKey, Principal{
			ID:    claims.Subject,
			Name:  claims.Name,
			Roles: claims.Roles,
		})
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return Principal{}, false
	}
	principal, ok := val.(Principal)
	return principal, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
