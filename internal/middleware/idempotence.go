package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	idempotenceHeader = "X-Idempotence-Key"
	idempotenceTTL    = 60 * time.Second
	idempotencePrefix = "jd:idempotence:"
)

// Idempotence blocks a repeated POST/PUT/PATCH/DELETE while the first copy is in flight
// and for a minute after it succeeded. Paths in skip are never guarded.
func Idempotence(rdb *redis.Client, skip ...string) gin.HandlerFunc {
	skipSet := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipSet[normalizePath(p)] = struct{}{}
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if _, ok := skipSet[normalizePath(c.Request.URL.Path)]; ok {
			c.Next()
			return
		}

		key, err := idempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := idempotencePrefix + key
		ctx := c.Request.Context()

		ok, err := rdb.SetNX(ctx, redisKey, "0", idempotenceTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			val, getErr := rdb.Get(ctx, redisKey).Result()
			if getErr != nil && !errors.Is(getErr, redis.Nil) {
				c.Next()
				return
			}
			msg := "The same request can only be sent once per minute."
			if val == "0" {
				msg = "The same request is already being processed."
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

func normalizePath(p string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(p)), "/")
}

// idempotenceKey prefers the client supplied header, otherwise hashes the request.
func idempotenceKey(c *gin.Context) (string, error) {
	if hdr := strings.TrimSpace(c.GetHeader(idempotenceHeader)); hdr != "" {
		return hdr, nil
	}

	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	h := sha256.New()
	for _, part := range []string{
		c.Request.Method,
		c.Request.URL.String(),
		string(body),
		c.Request.UserAgent(),
		c.ClientIP(),
		extractToken(c),
	} {
		h.Write([]byte(part))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
