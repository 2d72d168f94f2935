package security

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipments/internal/log"
)

// TrustedProxies are the networks allowed to set forwarding headers.
var TrustedProxies = []string{
	"127.0.0.0/8",    // localhost
	"10.0.0.0/8",     // private networks
	"172.16.0.0/12",  // private networks
	"192.168.0.0/16", // private networks
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var suspiciousAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner",
}

// Detector flags requests that look like probing. It only observes;
// blocking is left to the rate limiter and routing.
type Detector struct {
	suspicious int64
	logger     *zap.Logger
}

func NewDetector(logger *zap.Logger) *Detector {
	return &Detector{logger: log.OrNop(logger)}
}

// Suspicious reports whether r matches a known attack pattern.
func (d *Detector) Suspicious(r *http.Request) bool {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, p := range suspiciousPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true
		}
	}

	agent := strings.ToLower(r.UserAgent())
	for _, a := range suspiciousAgents {
		if strings.Contains(agent, a) {
			return true
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		return true
	}

	if len(r.URL.String()) > 2048 {
		return true
	}

	// more than 5 proxy hops
	return strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5
}

// Count returns the number of suspicious requests seen.
func (d *Detector) Count() int64 {
	return atomic.LoadInt64(&d.suspicious)
}

// Handler logs suspicious requests and lets them through.
func (d *Detector) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.Suspicious(c.Request) {
			atomic.AddInt64(&d.suspicious, 1)
			log.FromContext(c.Request.Context()).Warn("suspicious request",
				zap.String(log.FieldClientIP, c.ClientIP()),
				zap.String(log.FieldMethod, c.Request.Method),
				zap.String(log.FieldPath, c.Request.URL.Path),
				zap.String(log.FieldUserAgent, c.Request.UserAgent()))
		}
		c.Next()
	}
}
