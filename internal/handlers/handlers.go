package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"spendbook/internal/auth"
	"spendbook/internal/database"
	"spendbook/internal/logger"
	"spendbook/internal/statements"
	"spendbook/internal/version"
)

type Handler struct {
	db             *database.DB
	auth           *auth.Auth
	statements     *statements.Service
	maxUploadBytes int64
}

func New(db *database.DB, a *auth.Auth, svc *statements.Service, maxUploadBytes int64) *Handler {
	return &Handler{
		db:             db,
		auth:           a,
		statements:     svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the full API wrapped in access logging. Everything except login,
// health and version requires a session.
func (h *Handler) Routes() http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/logout", h.Logout)

	// Statements
	protected.HandleFunc("GET /api/statements", h.StatementsList)
	protected.HandleFunc("POST /api/statements/upload", h.StatementsUpload)
	protected.HandleFunc("POST /api/statements/reupload", h.StatementsReupload)
	protected.HandleFunc("POST /api/statements/expenses", h.StatementsSaveExpenses)
	protected.HandleFunc("GET /api/statements/{id}/expenses", h.StatementsExpenses)

	// Reference data
	protected.HandleFunc("GET /api/categories", h.CategoriesList)
	protected.HandleFunc("GET /api/payment-types", h.PaymentTypesList)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/version", h.APIVersion)
	mux.Handle("/", h.auth.Middleware(protected))

	return logger.HTTPMiddleware(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps service errors onto HTTP statuses. Internal details stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, event string, err error) {
	l := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, statements.ErrInvalidInput):
		l.Warn(event, "error", err.Error())
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, statements.ErrUnsupportedFormat):
		l.Warn(event, "error", err.Error())
		writeMessage(w, http.StatusUnsupportedMediaType, "Unsupported file format. Upload a .csv or .pdf statement.")
	case errors.Is(err, statements.ErrStatementNotFound):
		l.Warn(event, "error", err.Error())
		writeMessage(w, http.StatusNotFound, "Statement not found")
	case errors.Is(err, statements.ErrParseFailure):
		l.Error(event, "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Failed to process statement file")
	default:
		l.Error(event, "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Failed to save statement data")
	}
}

// Health reports whether the database is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("health_check_failed", "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// APIVersion returns build metadata
func (h *Handler) APIVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (h *Handler) CategoriesList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.db.ListCategories(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("categories_list_error", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Failed to load categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) PaymentTypesList(w http.ResponseWriter, r *http.Request) {
	types, err := h.db.ListPaymentTypes(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("payment_types_list_error", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Failed to load payment types")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment_types": types})
}
