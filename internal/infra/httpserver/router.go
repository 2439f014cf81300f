package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appdashboard "github.com/bryanwahyu/mediassist-gateway/internal/application/dashboard"
	appsymptoms "github.com/bryanwahyu/mediassist-gateway/internal/application/symptoms"
	domain "github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
	"github.com/bryanwahyu/mediassist-gateway/internal/middleware"
)

const (
	HealthMessage       = "MediAssistant Backend is running!"
	defaultMaxBodyBytes = 1 << 20
	contractViolation   = "CONTRACT_VIOLATION"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Detail string              `json:"detail"`
	Code   string              `json:"code,omitempty"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

type Options struct {
	Symptoms       *appsymptoms.Service
	Dashboard      *appdashboard.Service
	Metrics        *middleware.Metrics
	Logger         *slog.Logger
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type Router struct {
	symptomsSvc  *appsymptoms.Service
	dashboardSvc *appdashboard.Service
	logger       *slog.Logger
	maxBody      int64
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		symptomsSvc:  opts.Symptoms,
		dashboardSvc: opts.Dashboard,
		logger:       opts.Logger,
		maxBody:      opts.MaxBodyBytes,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.maxBody <= 0 {
		r.maxBody = defaultMaxBodyBytes
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Logging(r.logger))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	mux.Get("/", middleware.HealthHandler(HealthMessage))
	mux.Get("/healthz", middleware.LivenessHandler)
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/analyze-symptoms", r.wrap(r.handleAnalyzeSymptoms))
		rt.Get("/pro/dashboard", r.wrap(r.handleDashboard))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		log := r.logger.With("request_id", middleware.GetRequestID(req.Context()), "path", req.URL.Path)

		var (
			ve   *domain.ValidationError
			rerr *domain.RemoteInvocationError
			cerr *domain.ResponseContractError
		)
		switch {
		case errors.As(err, &cerr):
			middleware.WriteJSON(w, http.StatusBadGateway, ErrorResponse{
				Detail: "The AI service returned an invalid response",
				Code:   contractViolation,
			})
		case errors.As(err, &rerr):
			middleware.WriteJSON(w, http.StatusBadGateway, ErrorResponse{
				Detail: "An error occurred with the AI service: " + rerr.Message,
				Code:   rerr.Code,
			})
		case errors.As(err, &ve) && ve.Direction == domain.DirectionRequest:
			middleware.WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Detail: domain.ErrRequestInvalid.Error(),
				Errors: ve.Fields,
			})
		default:
			log.Error("Router.wrap: unexpected error", "error", err)
			middleware.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
				Detail: "An unexpected error occurred",
			})
		}
	}
}

// POST /api/analyze-symptoms
// Body: {"symptoms": "...", "patientContext": {"age": 30, "sex": "female", "history": "..."}}
func (r *Router) handleAnalyzeSymptoms(w http.ResponseWriter, req *http.Request) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Detail: domain.ErrRequestInvalid.Error(),
				Errors: []domain.FieldError{{Field: "(body)", Type: "too_large", Message: "request body is too large"}},
			})
			return nil
		}
		return err
	}

	resp, err := r.symptomsSvc.Analyze(req.Context(), body)
	if clientGone(req.Context()) {
		// nobody is listening; the outcome was already logged by the service
		r.logger.Info("Router.handleAnalyzeSymptoms: client disconnected before reply",
			"request_id", middleware.GetRequestID(req.Context()))
		return nil
	}
	if err != nil {
		return err
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
	return nil
}

// GET /api/pro/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	data, err := r.dashboardSvc.Get(req.Context())
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, data)
	return nil
}

func clientGone(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
