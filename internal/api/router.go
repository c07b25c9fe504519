package api

import (
	"net/http"
)

// ServiceName and Version are reported by GET /.
const (
	ServiceName = "chronoscope-api"
	Version     = "0.1.0"
)

// RouterConfig wires the handlers into NewRouter. Gallery and Journal are
// optional; their routes are omitted when nil. WriteLimit, if set, wraps
// the routes that store data. Metrics serves GET /metrics when set.
type RouterConfig struct {
	Health    *HealthHandlers
	Scenes    *SceneHandlers
	Waypoints *WaypointHandlers
	Gallery   *GalleryHandlers
	Journal   *JournalHandlers

	WriteLimit func(http.Handler) http.Handler
	Metrics    http.Handler
}

// NewRouter registers every API route on a new ServeMux.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	limited := func(h http.HandlerFunc) http.Handler {
		if cfg.WriteLimit == nil {
			return h
		}
		return cfg.WriteLimit(h)
	}

	mux.HandleFunc("GET /{$}", serviceInfo)
	mux.HandleFunc("/", notFound)

	if cfg.Health != nil {
		mux.HandleFunc("GET /health", cfg.Health.Health)
		mux.HandleFunc("GET /ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mux.HandleFunc("GET /share", DecodeShare)
	mux.HandleFunc("POST /share", EncodeShare)

	if cfg.Scenes != nil {
		mux.HandleFunc("POST /scenes/render", cfg.Scenes.Render)
		mux.HandleFunc("GET /scenes/render/ws", cfg.Scenes.RenderStream)
		mux.HandleFunc("GET /waypoints/{id}/ws", cfg.Scenes.JumpStream)
	}

	waypoints := cfg.Waypoints
	if waypoints == nil {
		waypoints = NewWaypointHandlers()
	}
	mux.HandleFunc("GET /waypoints", waypoints.List)
	mux.HandleFunc("GET /waypoints/{id}", waypoints.Get)

	if g := cfg.Gallery; g != nil {
		mux.Handle("POST /gallery", limited(g.Save))
		mux.HandleFunc("GET /gallery", g.List)
		mux.HandleFunc("DELETE /gallery", g.Clear)
		mux.HandleFunc("GET /gallery/count", g.Count)
		mux.HandleFunc("GET /gallery/usage", g.Usage)
		mux.Handle("POST /gallery/dedupe", limited(g.Dedupe))
		mux.HandleFunc("GET /gallery/{id}", g.Get)
		mux.HandleFunc("DELETE /gallery/{id}", g.Delete)
	}

	if j := cfg.Journal; j != nil {
		mux.HandleFunc("GET /journal", j.List)
		mux.Handle("POST /journal", limited(j.Add))
		mux.HandleFunc("DELETE /journal", j.Clear)
		mux.HandleFunc("GET /journal/export", j.Export)
		mux.Handle("POST /journal/import", limited(j.Import))
		mux.HandleFunc("PATCH /journal/{id}", j.Update)
		mux.HandleFunc("DELETE /journal/{id}", j.Remove)
	}

	return mux
}

// ServiceInfo is the body of GET /.
type ServiceInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

func serviceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, ServiceInfo{Service: ServiceName, Version: Version})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeCode(w, r, ErrCodeNotFound, "The requested resource was not found")
}
