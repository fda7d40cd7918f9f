package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// cacheEntry is one stored response.
type cacheEntry struct {
	status      int
	contentType string
	body        []byte
}

// teeWriter copies the response body while it is being written so a
// successful GET can be stored after the handler chain finishes.
type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GETs from memory and flushes the whole cache when
// a mutation succeeds. A single procurement update changes requests,
// budgets, devices and statistics at once, so per-key invalidation would
// buy nothing.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			if succeeded(c.Writer.Status()) {
				store.Flush()
			}
			return
		}

		key := c.Request.RequestURI
		if hit, ok := store.Get(key); ok {
			entry := hit.(cacheEntry)
			c.Header("X-Cache", "HIT")
			c.Data(entry.status, entry.contentType, entry.body)
			c.Abort()
			return
		}

		tee := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tee
		c.Next()

		if succeeded(tee.Status()) {
			store.Set(key, cacheEntry{
				status:      tee.Status(),
				contentType: tee.Header().Get("Content-Type"),
				body:        tee.buf.Bytes(),
			}, ttl)
		}
	}
}

func succeeded(status int) bool {
	return status >= 200 && status < 300
}
