package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AllowFunc reports whether a request bypasses rate limiting.
type AllowFunc func(*gin.Context) bool

// AllowPrivateIP bypasses loopback and RFC 1918 clients.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
	}
}

// AllowPreflight bypasses CORS preflight requests.
func AllowPreflight() AllowFunc {
	return func(c *gin.Context) bool {
		return c.Request.Method == http.MethodOptions
	}
}

// AnyOf bypasses a request when any of fns does. Nil entries are ignored.
func AnyOf(fns ...AllowFunc) AllowFunc {
	return func(c *gin.Context) bool {
		for _, fn := range fns {
			if fn != nil && fn(c) {
				return true
			}
		}
		return false
	}
}
