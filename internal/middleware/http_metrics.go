package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// staticRoutes are recorded under their own path.
var staticRoutes = map[string]bool{
	"/":                 true,
	"/scenes/render":    true,
	"/scenes/render/ws": true,
	"/waypoints":        true,
	"/share":            true,
	"/gallery":          true,
	"/gallery/count":    true,
	"/gallery/usage":    true,
	"/gallery/dedupe":   true,
	"/journal":          true,
	"/journal/export":   true,
	"/journal/import":   true,
	"/health":           true,
	"/ready":            true,
	"/metrics":          true,
}

// waypointActions are the sub-resources of /waypoints/{id}.
var waypointActions = map[string]bool{
	"ws": true,
}

// normalizePath maps request paths onto route patterns so ids do not
// become metric labels: /gallery/5b0c... becomes /gallery/{id}. Unknown
// paths collapse to "other".
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 2 || parts[1] == "" {
		return "other"
	}

	switch parts[0] {
	case "gallery", "journal":
		if len(parts) == 2 {
			return "/" + parts[0] + "/{id}"
		}
	case "waypoints":
		if len(parts) == 2 {
			return "/waypoints/{id}"
		}
		if len(parts) == 3 && waypointActions[parts[2]] {
			return "/waypoints/{id}/" + parts[2]
		}
	}
	return "other"
}

// HTTPMetrics is a middleware that records HTTP request metrics: duration,
// request and response sizes, and request counts. /health and /ready are
// not recorded.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseWriter(w)

			requestSize := int64(0)
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					requestSize = size
				}
			}

			next.ServeHTTP(rw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(rw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				rw.size,
			)
		})
	}
}
