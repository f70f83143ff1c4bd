package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// pruneThreshold bounds the tracked-client map; reading sessions are long
// lived so the same few IPs dominate, and anything past its window is dead
// weight.
const pruneThreshold = 4096

// RateLimit applies a fixed-window per-IP limit. Windows reset lazily on the
// next request rather than by a background timer.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	var mu sync.Mutex
	windows := make(map[string]*window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			now := time.Now()

			mu.Lock()
			cur, ok := windows[ip]
			if !ok || now.Sub(cur.start) >= per {
				if len(windows) >= pruneThreshold {
					for key, win := range windows {
						if now.Sub(win.start) >= per {
							delete(windows, key)
						}
					}
				}
				cur = &window{start: now}
				windows[ip] = cur
			}
			if cur.count >= limit {
				mu.Unlock()
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			cur.count++
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
