package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"hexapink-api/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserID  = "userID"
	NewTokenHeader = "x-new-token"
	renewedTTL     = 15 * time.Minute
)

// AuthMiddleware resolves the caller from an HS256 JWT found in the
// Authorization header or the access_token cookie. When the token is close to
// expiry a fresh one is returned in the x-new-token header.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := config.LoadConfig()

		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing access token"})
			return
		}

		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		userID, ok := claimUserID(claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user ID"})
			return
		}

		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			if time.Until(exp.Time) < cfg.TokenRenewWindow {
				if renewed, err := renew(claims, cfg.JWTSecret); err == nil {
					c.Header(NewTokenHeader, renewed)
				}
			}
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID returns the caller set by AuthMiddleware.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	if v, err := c.Cookie("access_token"); err == nil {
		return v
	}
	return ""
}

func claimUserID(claims jwt.MapClaims) (uint, bool) {
	v, ok := claims["id"]
	if !ok {
		v, ok = claims["user_id"]
	}
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		if x <= 0 || x != float64(uint(x)) {
			return 0, false
		}
		return uint(x), true
	case string:
		n, err := strconv.ParseUint(x, 10, 64)
		if err != nil || n == 0 {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}

func renew(claims jwt.MapClaims, secret string) (string, error) {
	next := jwt.MapClaims{}
	for k, v := range claims {
		next[k] = v
	}
	now := time.Now()
	next["iat"] = now.Unix()
	next["exp"] = now.Add(renewedTTL).Unix()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, next).SignedString([]byte(secret))
}
