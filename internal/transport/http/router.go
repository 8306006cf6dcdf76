package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"quiz-session/internal/app"
	"quiz-session/internal/domain"
)

// NewRouter wires the question endpoint, session lookups and the WebSocket session transport.
func NewRouter(service *app.QuizService, logger *slog.Logger, allowedOrigins []string) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))
	r.Use(CORS(allowedOrigins))

	h := &handlers{service: service, logger: logger}
	r.Get("/questions", h.questions)
	r.Get("/sessions/{sessionID}", h.sessionState)
	r.Get("/ws", NewWSHandler(service, logger).ServeWS)
	return r
}

type handlers struct {
	service *app.QuizService
	logger  *slog.Logger
}

func (h *handlers) questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Questions(r.Context())
	switch {
	case errors.Is(err, domain.ErrQuestionsNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.logger.Error("serve questions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load questions")
	default:
		writeJSON(w, http.StatusOK, questions)
	}
}

func (h *handlers) sessionState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
