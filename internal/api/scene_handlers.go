package api

import (
	"context"
	"net/http"

	"github.com/BioInfo/chronoscope/internal/journal"
	"github.com/BioInfo/chronoscope/internal/middleware"
	"github.com/BioInfo/chronoscope/internal/progress"
	"github.com/BioInfo/chronoscope/internal/scene"
	"github.com/BioInfo/chronoscope/internal/spacetime"
	"github.com/BioInfo/chronoscope/internal/tracing"
)

// maxCoordinatesBody bounds coordinate request bodies.
const maxCoordinatesBody = 4 << 10

// SceneHandlersConfig holds the dependencies of SceneHandlers. Journal and
// Metrics are optional. AllowedOrigins restricts websocket upgrades; empty
// allows any origin.
type SceneHandlersConfig struct {
	Generator      *scene.Generator
	Simulator      *progress.Simulator
	Journal        *journal.Journal
	Metrics        *middleware.Metrics
	AllowedOrigins []string
}

// SceneHandlers renders scenes, either in one request or streamed over a
// websocket with simulated progress.
type SceneHandlers struct {
	generator *scene.Generator
	simulator *progress.Simulator
	journal   *journal.Journal
	metrics   *middleware.Metrics
	origins   map[string]bool
}

// NewSceneHandlers creates SceneHandlers.
func NewSceneHandlers(cfg SceneHandlersConfig) *SceneHandlers {
	h := &SceneHandlers{
		generator: cfg.Generator,
		simulator: cfg.Simulator,
		journal:   cfg.Journal,
		metrics:   cfg.Metrics,
		origins:   make(map[string]bool, len(cfg.AllowedOrigins)),
	}
	if h.generator == nil {
		h.generator = scene.NewGenerator(nil)
	}
	if h.simulator == nil {
		h.simulator = progress.NewSimulator(progress.Config{})
	}
	for _, o := range cfg.AllowedOrigins {
		if o != "" {
			h.origins[o] = true
		}
	}
	return h
}

// generate builds the scene for c and records the visit in the journal.
func (h *SceneHandlers) generate(ctx context.Context, c spacetime.Coordinates) scene.Scene {
	ctx, endSpan := tracing.StartSpan(ctx, "scene.generate", tracing.CoordinateAttributes(c)...)
	sc := h.generator.Generate(c)
	endSpan(nil)

	h.recordVisit(ctx, c, sc.LocationName)
	return sc
}

func (h *SceneHandlers) recordVisit(ctx context.Context, c spacetime.Coordinates, locationName string) {
	if h.journal != nil {
		h.journal.Add(ctx, c, locationName, false, "")
	}
}

// Render handles POST /scenes/render. The body is a coordinate; the
// response is the generated scene.
func (h *SceneHandlers) Render(w http.ResponseWriter, r *http.Request) {
	var c spacetime.Coordinates
	if !decodeJSON(w, r, maxCoordinatesBody, &c) {
		return
	}
	if v := spacetime.Validate(c); !v.Valid {
		writeCode(w, r, ErrCodeValidation, v.Error)
		return
	}

	writeJSON(w, r, http.StatusOK, h.generate(r.Context(), c))
}
