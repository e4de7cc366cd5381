package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the numeric id of the acting user. Authentication
// happens upstream; this service trusts the header.
const HeaderUserID = "X-User-ID"

const userIDKey = "userID"

// UserID resolves the acting user from X-User-ID and rejects requests without
// a positive numeric id with 401. The id is stored in the Gin context and
// added to the request-scoped logger.
func UserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "X-User-ID header with a numeric user id is required",
			})
			return
		}
		uid := uint(id)
		c.Set(userIDKey, uid)

		l := LoggerFrom(c).With().Uint("user_id", uid).Logger()
		setLogger(c, &l)
		c.Next()
	}
}

// UserIDFrom returns the user id stored by UserID.
func UserIDFrom(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
