package gateway

import (
	"net"
	"net/http"

	"github.com/gobwas/ws"
	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/hub"
	"github.com/shubham-shewale/livemarket/cmd/gateway/internal/repository"
)

// NewHandler upgrades requests to websocket clients of h. A nil limiter
// admits every connection.
func NewHandler(h *hub.Hub, limiter repository.RateLimiter, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter != nil {
			ip := clientIP(r)
			allowed, err := limiter.Allow(ip)
			if err != nil {
				logger.Error("Rate limiter failed", zap.String("ip", ip), zap.Error(err))
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				logger.Warn("Connection rate limited", zap.String("ip", ip))
				http.Error(w, "too many connections", http.StatusTooManyRequests)
				return
			}
		}

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			logger.Debug("Upgrade failed", zap.Error(err))
			return
		}

		NewClient(conn, h, logger).Start()
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
