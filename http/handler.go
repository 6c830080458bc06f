package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/pitfall"
)

// Service is the subset of pitfall.Service the handlers call.
type Service interface {
	Login(ctx context.Context, username, password string) (pitfall.UserRecord, error)
	ReadFile(ctx context.Context, name string) ([]byte, error)
	Duplicates(ctx context.Context) ([]int, error)
	StartMonitor(ctx context.Context, interval time.Duration) (int, error)
	Increment(ctx context.Context) (int64, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64
	RateBurst int
	// RedactPassword blanks the password in successful login responses.
	RedactPassword bool
	// Metrics enables GET /metrics and request counting when non-nil.
	Metrics *Metrics
	Logger  *slog.Logger
}

// Handler provides HTTP handlers for the pitfall endpoints.
type Handler struct {
	config   HandlerConfig
	service  Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		config:   *config,
		service:  service,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns an http.Handler with every route and middleware configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	if h.config.Metrics != nil {
		r.Use(h.config.Metrics.Middleware)
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(writeRouteNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Get("/healthz", h.handleHealth)
	if h.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.config.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(h.config.RateLimit, h.config.RateBurst))
		r.Post("/login", h.handleLogin)
		r.Get("/file", h.handleFile)
		r.Get("/duplicates", h.handleDuplicates)
		r.Post("/monitor", h.handleMonitor)
		r.Post("/increment", h.handleIncrement)
	})

	return r
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			writeInvalidCredentials(w)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidCredentials(w)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeInvalidCredentials(w)
		return
	}

	user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, pitfall.ErrUnauthorized) {
			writeInvalidCredentials(w)
		} else {
			HandleError(w, err)
		}
		return
	}

	if h.config.RedactPassword {
		user.Password = ""
	}

	_ = WriteJSON(w, http.StatusOK, pitfall.LoginResult{
		Message: "Login successful",
		User:    user,
	})
}

func isFormRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func writeInvalidCredentials(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	data, err := h.service.ReadFile(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, pitfall.ErrInvalidPath):
			WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid file path")
		case errors.Is(err, pitfall.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "invalid_filename", "Invalid filename")
		case errors.Is(err, pitfall.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "File not found")
		default:
			HandleError(w, err)
			return
		}
		h.logger.Debug("file request rejected", "name", name, "error", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type duplicatesResponse struct {
	Duplicates []int `json:"duplicates"`
}

func (h *Handler) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	dups, err := h.service.Duplicates(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}
	if dups == nil {
		dups = []int{}
	}

	_ = WriteJSON(w, http.StatusOK, duplicatesResponse{Duplicates: dups})
}

type monitorRequest struct {
	// Interval in milliseconds; zero or negative selects the default.
	Interval float64 `json:"interval"`
}

// monitorInterval converts milliseconds to a cadence. Zero, negative and
// NaN select the default; other values are clamped to the timer bounds.
func monitorInterval(ms float64) time.Duration {
	switch {
	case math.IsNaN(ms) || ms <= 0:
		return 0
	case ms < 1:
		return minMonitorInterval
	case ms > math.MaxInt32:
		return maxMonitorInterval
	}
	return time.Duration(ms * float64(time.Millisecond))
}

type monitorResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// Timer cadence bounds; positive intervals outside them are clamped.
const (
	minMonitorInterval = time.Millisecond
	maxMonitorInterval = math.MaxInt32 * time.Millisecond
)

func (h *Handler) handleMonitor(w http.ResponseWriter, r *http.Request) {
	var req monitorRequest

	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			HandleError(w, ErrMalformedBody)
			return
		}
		if v := r.PostForm.Get("interval"); v != "" {
			ms, err := strconv.ParseFloat(v, 64)
			if err != nil {
				HandleError(w, ErrMalformedBody)
				return
			}
			req.Interval = ms
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		HandleError(w, ErrMalformedBody)
		return
	}

	interval := monitorInterval(req.Interval)

	id, err := h.service.StartMonitor(r.Context(), interval)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, monitorResponse{Message: "Monitoring started", ID: id})
}

type incrementResponse struct {
	Counter int64 `json:"counter"`
}

func (h *Handler) handleIncrement(w http.ResponseWriter, r *http.Request) {
	// A client that disconnects mid-cycle must not leave the cycle half done.
	ctx := context.WithoutCancel(r.Context())

	value, err := h.service.Increment(ctx)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, incrementResponse{Counter: value})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
