package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxKeyClientIP = "real_ip"

// RealIP resolves the client address once per request. With trustProxy set,
// CF-Connecting-IP wins over the left-most X-Forwarded-For entry; otherwise only
// gin's own resolution is used.
func RealIP(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ""
		if trustProxy {
			ip = headerIP(c.GetHeader("CF-Connecting-IP"))
			if ip == "" {
				first, _, _ := strings.Cut(c.GetHeader("X-Forwarded-For"), ",")
				ip = headerIP(first)
			}
		}
		if ip == "" {
			ip = c.ClientIP()
		}
		c.Set(ctxKeyClientIP, ip)
		c.Next()
	}
}

func headerIP(v string) string {
	if parsed := net.ParseIP(strings.TrimSpace(v)); parsed != nil {
		return parsed.String()
	}
	return ""
}

// ClientIP returns the address stored by RealIP, or "unknown".
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(ctxKeyClientIP); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// AllowPrivateIP lets loopback and RFC 1918 / RFC 4193 clients skip a limit.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ClientIP(c))
		return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
	}
}
