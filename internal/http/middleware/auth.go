// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements route protection and role gating. Protect verifies
// the bearer token (header or cookie), loads the current user record, and
// stores it in the Gin context; Authorize restricts a route to a role set.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-bootcamp-backend/internal/auth"
	"github.com/tbourn/go-bootcamp-backend/internal/domain"
)

// currentUserKey is the Gin context key the authenticated user is stored
// under.
const currentUserKey = "currentUser"

// UserLoader fetches a user record by id. The router wires this to the user
// repository; tests substitute a fake.
type UserLoader func(ctx context.Context, id primitive.ObjectID) (*domain.User, error)

// Protect returns middleware that requires a valid signed token. The token is
// read from the Authorization bearer header, falling back to the "token"
// cookie. On success the full user record is loaded and stored in the
// context together with the "userID" string used by logging and rate
// limiting.
func Protect(secret string, load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := auth.Parse(tokenString, secret)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		user, err := load(c.Request.Context(), id)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(currentUserKey, user)
		c.Set("userID", user.ID.Hex())
		c.Next()
	}
}

// Authorize returns middleware restricting a route to the given roles. It
// must run after Protect. Role failures are 403: unlike ownership checks
// the role gate has always distinguished forbidden from unauthenticated.
func Authorize(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortUnauthorized(c)
			return
		}
		if !allowed[user.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "User role " + user.Role + " is not authorized to access this route",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by Protect, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// bearerToken extracts the token from the Authorization header or, failing
// that, the "token" cookie set at login.
func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	if h := c.GetHeader("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

// abortUnauthorized writes the uniform 401 envelope.
func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "Not authorized to access this route",
	})
}
