package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bancodigital/banca-api/internal/session"
)

// Claims is the JWT payload for a login session. The token ID doubles as
// the session store key, so revoking the session invalidates the token
// before it expires.
type Claims struct {
	AccountID     int64  `json:"accountId"`
	HolderID      int64  `json:"holderId"`
	AccountNumber string `json:"accountNumber"`
	jwt.RegisteredClaims
}

// SessionChecker is the part of the session store the middleware needs.
type SessionChecker interface {
	Get(ctx context.Context, id string) (*session.Record, bool)
}

// NewToken mints a signed session token for the given record.
func NewToken(secret []byte, sessionID string, record *session.Record, ttl time.Duration) (string, error) {
	claims := Claims{
		AccountID:     record.AccountID,
		HolderID:      record.HolderID,
		AccountNumber: record.AccountNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Auth validates the bearer token and checks that its session is still
// live, then exposes the account identity on the request context.
func Auth(secret []byte, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		if _, ok := sessions.Get(c.Request.Context(), claims.ID); !ok {
			RespondWithError(c, http.StatusUnauthorized, "Session has ended")
			c.Abort()
			return
		}

		c.Set("accountId", claims.AccountID)
		c.Set("holderId", claims.HolderID)
		c.Set("sessionId", claims.ID)
		c.Next()
	}
}

// GetAccountID returns the authenticated account's identifier.
func GetAccountID(c *gin.Context) (int64, bool) {
	accountID, exists := c.Get("accountId")
	if !exists {
		return 0, false
	}
	return accountID.(int64), true
}

// GetHolderID returns the authenticated account's holder identifier.
func GetHolderID(c *gin.Context) (int64, bool) {
	holderID, exists := c.Get("holderId")
	if !exists {
		return 0, false
	}
	return holderID.(int64), true
}

// GetSessionID returns the session identifier carried by the token.
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get("sessionId")
	if !exists {
		return "", false
	}
	return sessionID.(string), true
}
