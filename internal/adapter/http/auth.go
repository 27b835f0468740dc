package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the token's role claim.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

var errInvalidToken = errors.New("invalid token")

// Claims are the JWT claims the API accepts. The subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func newAuthenticator(secret string) *authenticator {
	return &authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

func (a *authenticator) parse(tokenString string) (*Claims, error) {
	token, err := a.parser.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	if claims.Role == "" {
		claims.Role = RoleUser
	}
	return claims, nil
}

// authenticate reads the bearer token, or the token query parameter that
// browser WebSocket clients use. ok is false when no token was sent.
func (a *authenticator) authenticate(c *gin.Context) (claims *Claims, ok bool, err error) {
	raw := c.Query("token")
	if header := c.GetHeader("Authorization"); header != "" {
		raw = strings.TrimPrefix(header, "Bearer ")
		if raw == header {
			return nil, true, errors.New("bearer token required")
		}
	}
	if raw == "" {
		return nil, false, nil
	}
	claims, err = a.parse(raw)
	return claims, true, err
}

// optional attaches the caller identity when a valid token is present and
// rejects invalid tokens. Anonymous requests pass through.
func (a *authenticator) optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok, err := a.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if ok {
			c.Set(ctxUserID, claims.Subject)
			c.Set(ctxRole, claims.Role)
		}
		c.Next()
	}
}

// required rejects requests without a valid token.
func (a *authenticator) required() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok, err := a.authenticate(c)
		switch {
		case !ok:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// userID returns the authenticated user, or "" for anonymous requests.
func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
