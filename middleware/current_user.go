package middleware

import (
	"github.com/gin-gonic/gin"

	"pinboard/config"
	"pinboard/dao"
	"pinboard/internal/auth"
	"pinboard/model"
)

const userKey = "current_user"

// CurrentUser resolves the session cookie into the authenticated user and
// places it in the request context. Requests without a valid session pass
// through anonymously; nothing here ever rejects a request.
func CurrentUser(sessions *auth.SessionManager, users *dao.UserDAO) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(config.GlobalConfig.Session.CookieName)
		if err != nil {
			c.Next()
			return
		}

		claims, err := auth.ParseSessionToken(token)
		if err != nil {
			c.Next()
			return
		}

		// The token is only trusted while its session record exists and
		// still belongs to the same user.
		userID, err := sessions.Get(claims.SessionID)
		if err != nil || userID != claims.UserID {
			c.Next()
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil || !user.Identity.IsActive {
			c.Next()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// UserFromContext returns the authenticated user stored by CurrentUser.
func UserFromContext(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}
