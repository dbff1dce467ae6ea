// Package server exposes beatmap analysis over HTTP.
package server

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"mapcheck/beatmap"
	"mapcheck/difficulty"
	"mapcheck/dotosu"
	"mapcheck/store"
)

// Config for the HTTP API handler.
type Config struct {
	// Store caches computed ratings. Nil disables caching and the ratings
	// routes answer 404.
	Store    *store.Store
	Combiner difficulty.Combiner
	BasePath string
	Logger   *log.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_beatmap"`
	Message string         `json:"message" example:"invalid .osu header"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError is the error envelope of every failed request.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the mapcheck API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Combiner == nil {
		cfg.Combiner = difficulty.Classic
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "server: ", log.LstdFlags)
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: cfg.Logger, NoColor: true}))
	router.Use(middleware.Recoverer)

	hcfg := huma.DefaultConfig("mapcheck API", "0.1.0")
	hcfg.OpenAPIPath = basePath + "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerAnalyze(group, cfg)
	registerRatings(group, cfg)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, beatmap.ErrNoTiming), errors.Is(err, dotosu.ErrInvalidHeader):
		return newAPIError(http.StatusBadRequest, "invalid_beatmap", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAnalyze(api huma.API, cfg Config) {
	type analyzeInput struct {
		BeatmapID int    `query:"beatmap_id" doc:"Recorded with the cached rating"`
		RawBody   []byte `contentType:"text/plain"`
	}
	huma.Register(api, huma.Operation{
		OperationID:   "analyze",
		Method:        http.MethodPost,
		Path:          "/analyze",
		Summary:       "Analyze an uploaded .osu file",
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *analyzeInput) (*struct {
		Body analysisDTO `json:"body"`
	}, error) {
		if len(bytes.TrimSpace(input.RawBody)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "invalid_beatmap", "empty body", nil)
		}
		f, err := dotosu.Decode(bytes.NewReader(input.RawBody))
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "invalid_beatmap", err.Error(), nil)
		}
		b, err := beatmap.New(f, beatmap.WithCombiner(cfg.Combiner))
		if err != nil {
			return nil, handleError(err)
		}
		unsnaps, err := b.UnsnapIssues()
		if err != nil {
			return nil, handleError(err)
		}

		sum := store.Checksum(input.RawBody)
		if a, ok := b.Attributes(); ok && cfg.Store != nil {
			r := &store.Rating{
				Checksum:  sum,
				BeatmapID: input.BeatmapID,
				Title:     b.Metadata.Title,
				Version:   b.Metadata.Version,
				Stars:     a.Total,
				Aim:       a.Aim,
				Speed:     a.Speed,
			}
			if input.BeatmapID == 0 {
				r.BeatmapID = b.Metadata.BeatmapID
			}
			if err := cfg.Store.Put(ctx, r); err != nil {
				return nil, handleError(err)
			}
		}
		return &struct {
			Body analysisDTO `json:"body"`
		}{Body: newAnalysisDTO(sum, b, unsnaps)}, nil
	})
}

func registerRatings(api huma.API, cfg Config) {
	type checksumPath struct {
		Checksum string `path:"checksum" minLength:"32" maxLength:"32"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-rating",
		Method:      http.MethodGet,
		Path:        "/ratings/{checksum}",
		Summary:     "Cached rating of a .osu file",
	}, func(ctx context.Context, input *checksumPath) (*struct {
		Body ratingDTO `json:"body"`
	}, error) {
		if cfg.Store == nil {
			return nil, handleError(store.ErrNotFound)
		}
		r, err := cfg.Store.Get(ctx, strings.ToLower(input.Checksum))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ratingDTO `json:"body"`
		}{Body: *r}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-ratings",
		Method:      http.MethodGet,
		Path:        "/ratings",
		Summary:     "Every cached rating, newest first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ratingDTO `json:"body"`
	}, error) {
		out := []ratingDTO{}
		if cfg.Store != nil {
			rs, err := cfg.Store.List(ctx)
			if err != nil {
				return nil, handleError(err)
			}
			out = append(out, rs...)
		}
		return &struct {
			Body []ratingDTO `json:"body"`
		}{Body: out}, nil
	})
}
