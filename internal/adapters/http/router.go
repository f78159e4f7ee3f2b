package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/topicgraph/internal/application"
	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/atvirokodosprendimai/topicgraph/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

const maxBodyBytes = 1 << 20

type Options struct {
	Logger      *zap.Logger
	Metrics     *metrics.Collector
	CORSOrigins []string
	// Ping reports storage health for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error
}

type Handler struct {
	services *application.Services
	logger   *zap.Logger
	metrics  *metrics.Collector
	ping     func(ctx context.Context) error
}

func NewRouter(services *application.Services, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{services: services, logger: logger.Named("http"), metrics: opts.Metrics, ping: opts.Ping}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", h.handleRegister)
		api.Post("/auth/login", h.handleLogin)
		api.Get("/topics", h.handleSearchTopics)
		api.Get("/topics/{id}", h.handleGetTopic)
		api.Get("/topics/{id}/interactions", h.handleListTopicInteractions)
		api.Get("/nodes", h.handleListNodes)
		api.Get("/nodes/{id}", h.handleGetNode)
		api.Get("/connections", h.handleListConnections)
		api.Get("/connections/{id}", h.handleGetConnection)
		api.Get("/posts", h.handleListPosts)
		api.Get("/posts/{id}", h.handleGetPost)
		api.Get("/references/{externalID}", h.handleGetReference)

		api.Group(func(auth chi.Router) {
			auth.Use(h.requireAuth)
			auth.Get("/auth/whoami", h.handleWhoAmI)
			auth.Post("/auth/logout", h.handleLogout)
			auth.Delete("/auth/me", h.handleAnonymize)

			auth.Post("/topics", h.handleCreateTopic)
			auth.Delete("/topics/{id}", h.handleDeleteTopic)

			auth.Post("/nodes", h.handleCreateNode)
			auth.Patch("/nodes/positions", h.handleUpdatePositions)
			auth.Patch("/nodes/{id}", h.handleUpdateNode)
			auth.Delete("/nodes/{id}", h.handleDeleteNode)

			auth.Post("/connections", h.handleCreateConnection)
			auth.Patch("/connections/{id}", h.handleUpdateConnection)
			auth.Delete("/connections/{id}", h.handleDeleteConnection)

			auth.Post("/posts", h.handleCreatePost)
			auth.Delete("/posts/{id}", h.handleDeletePost)

			auth.Get("/interactions", h.handleListMyInteractions)
		})
	})

	return r
}

// accessLog records one line and one metric sample per request, labelled
// with the matched route pattern rather than the raw path.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		h.metrics.ObserveHTTP(r.Method, route, status, elapsed)
		h.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", elapsed),
		)
	})
}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.authenticateRequest(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

func (h *Handler) authenticateRequest(r *http.Request) (domain.Identity, error) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.Identity{}, domain.NewAuthorizationError("")
	}
	return h.services.Auth.Authenticate(r.Context(), token)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[7:])
	return token, token != ""
}

func identityFromContext(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey).(domain.Identity)
	return identity
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindReference, domain.KindConcurrencyConflict:
		return http.StatusConflict
	case domain.KindAuthorization:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := map[string]any{"error": err.Error()}
	if kind := domain.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		body["error"] = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.NewValidationError("request body too large")
		}
		return domain.NewValidationError("invalid payload: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, domain.NewValidationError("invalid %s %q", name, raw)
	}
	return uint(v), nil
}

func queryUint(r *http.Request, name string) (*uint, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError("invalid %s", name)
	}
	out := uint(v)
	return &out, nil
}

func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, domain.NewValidationError("invalid limit")
	}
	return v, nil
}
