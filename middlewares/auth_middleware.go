package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/periodcalm/period-calm-website-sub000/models"
	"github.com/periodcalm/period-calm-website-sub000/services"
	"github.com/periodcalm/period-calm-website-sub000/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and stores userID, email and role
// on the context. Browsers cannot set headers on a websocket upgrade, so a
// "token" query parameter is accepted too.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimPrefix(h, "Bearer ")
		} else if q := c.Query("token"); q != "" {
			tokenString = q
		}
		if tokenString == "" {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}

		claims, err := utils.ParseJWT(secret, tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// AccountLookup returns an enabled account, or services.ErrNotFound when the
// account is missing or disabled.
type AccountLookup interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
}

// AdminOnly must run after AuthMiddleware. The token role only short-circuits
// obvious customers; the stored account decides, so a demotion or a disabled
// account takes effect before the token expires.
func AdminOnly(accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			utils.JSONError(c, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		user, err := accounts.FindUser(c.Request.Context(), c.GetUint("userID"))
		if errors.Is(err, services.ErrNotFound) {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "account disabled or removed")
			return
		}
		if err != nil {
			_ = c.Error(err)
			utils.JSONError(c, http.StatusInternalServerError, "internal", "something went wrong, please try again")
			return
		}
		if user.Role != models.RoleAdmin {
			utils.JSONError(c, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		c.Next()
	}
}
