// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for answer writes. The
// validator checks the header, stashes the key, and looks up a previously
// completed write for (user, scope, key). When one exists the stored outcome
// is placed in the context so the handler can answer with it instead of
// writing a second session, and the rate limiter lets the replay through.
//
// Persistence stays outside this package behind IdempotencyLookup.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyRecord is the stored outcome of a completed write.
type IdempotencyRecord struct {
	SessionID string
	Mode      string
	Status    int
}

// IdempotencyLookup returns the stored outcome for (userID, scope, key), or
// nil when none is valid at now. Errors are logged and treated as a miss.
type IdempotencyLookup func(ctx context.Context, userID uint, scope, key string, now time.Time) (*IdempotencyRecord, error)

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyScope identifies the write target of a request: the animal
// instance and category from the route parameters.
func IdempotencyScope(c *gin.Context) string {
	return strings.Join([]string{c.Param("animal_id"), c.Param("number"), c.Param("category_id")}, ":")
}

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// Replayed returns the stored outcome when this request repeats a completed
// write.
func Replayed(c *gin.Context) (*IdempotencyRecord, bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return nil, false
	}
	rec, ok := v.(*IdempotencyRecord)
	return rec, ok && rec != nil
}

// IdempotencyValidator validates Idempotency-Key on unsafe methods and marks
// replays. It must run after UserID. Safe methods pass through untouched.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid, ok := UserIDFrom(c)
		if lookup == nil || !ok {
			c.Next()
			return
		}
		rec, err := lookup(c.Request.Context(), uid, IdempotencyScope(c), key, time.Now().UTC())
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if rec != nil {
			c.Set(ctxKeyIdemReplay, rec)
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}
}
