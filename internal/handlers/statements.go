package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"spendbook/internal/auth"
	"spendbook/internal/logger"
	"spendbook/internal/models"
	"spendbook/internal/statements"
)

// uploadResponse is the preview returned for an uploaded statement
type uploadResponse struct {
	Duplicate      bool                         `json:"duplicate"`
	Message        string                       `json:"message"`
	StatementID    string                       `json:"statement_id"`
	Transactions   []models.EnrichedTransaction `json:"transactions"`
	FileName       string                       `json:"fileName"`
	UnmatchedLines int                          `json:"unmatched_lines"`
	ParseWarning   string                       `json:"parse_warning,omitempty"`
	PeriodStart    string                       `json:"period_start,omitempty"`
	PeriodEnd      string                       `json:"period_end,omitempty"`
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
	}
	return userID, ok
}

// StatementsUpload parses an uploaded statement and returns its transactions for review.
// An already-uploaded statement answers 409 unless ?force=true is set.
func (h *Handler) StatementsUpload(w http.ResponseWriter, r *http.Request) {
	l := logger.FromContext(r.Context())
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		l.Warn("statement_upload_parse_error", "error", err.Error())
		writeMessage(w, http.StatusBadRequest, "No file provided")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		l.Warn("statement_upload_file_error", "error", err.Error())
		writeMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	l.Info("statement_upload", "filename", header.Filename, "size", header.Size)

	res, err := h.statements.Upload(r.Context(), statements.UploadInput{
		UserID:   userID,
		Filename: header.Filename,
		Body:     file,
	})
	if err != nil {
		writeError(w, r, "statement_upload_error", err)
		return
	}

	logger.Annotate(r.Context(), "statement_id", res.StatementID, "duplicate", res.Duplicate,
		"transactions", len(res.Transactions), "unmatched_lines", res.UnmatchedLines)

	force := r.URL.Query().Get("force") == "true" || r.FormValue("force") == "true"
	if res.Duplicate && !force {
		writeJSON(w, http.StatusConflict, map[string]string{
			"message":      "This statement has already been uploaded",
			"statement_id": res.StatementID,
		})
		return
	}

	resp := uploadResponse{
		Duplicate:      res.Duplicate,
		Message:        uploadMessage(res),
		StatementID:    res.StatementID,
		Transactions:   res.Transactions,
		FileName:       res.FileName,
		UnmatchedLines: res.UnmatchedLines,
		ParseWarning:   res.Warning,
	}
	if res.Period != nil {
		resp.PeriodStart = res.Period.Start.Format("2006-01-02")
		resp.PeriodEnd = res.Period.End.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

func uploadMessage(res *statements.UploadResult) string {
	switch {
	case len(res.Transactions) == 0:
		return "No transactions found in statement"
	case res.Duplicate:
		return fmt.Sprintf("Statement was already uploaded; parsed %d transactions", len(res.Transactions))
	default:
		return fmt.Sprintf("Parsed %d transactions", len(res.Transactions))
	}
}

type reuploadRequest struct {
	StatementID string `json:"statement_id"`
}

// StatementsReupload deletes everything ingested from a statement so it can be uploaded again
func (h *Handler) StatementsReupload(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req reuploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	logger.Annotate(r.Context(), "statement_id", req.StatementID)

	res, err := h.statements.Reupload(r.Context(), userID, req.StatementID)
	if err != nil {
		writeError(w, r, "statement_reupload_error", err)
		return
	}
	logger.Annotate(r.Context(), "deleted_expenses", res.DeletedExpenses)

	writeMessage(w, http.StatusOK, fmt.Sprintf("Removed %d expenses; statement can be uploaded again", res.DeletedExpenses))
}

// paymentTypeID accepts the payment type as either a JSON string or number
type paymentTypeID string

func (p *paymentTypeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = paymentTypeID(s)
		return nil
	}
	*p = paymentTypeID(data)
	return nil
}

type saveExpensesRequest struct {
	Transactions []models.EnrichedTransaction `json:"transactions"`
	PaymentTypes paymentTypeID                `json:"paymentTypes"`
	StatementID  string                       `json:"statementId"`
}

// StatementsSaveExpenses persists reviewed transactions as expenses in one transaction
func (h *Handler) StatementsSaveExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req saveExpensesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.FromContext(r.Context()).Warn("statement_save_decode_error", "error", err.Error())
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.StatementID != "" {
		logger.Annotate(r.Context(), "statement_id", req.StatementID)
	}

	inserted, err := h.statements.SaveExpenses(r.Context(), statements.SaveInput{
		UserID:        userID,
		Transactions:  req.Transactions,
		PaymentTypeID: strings.TrimSpace(string(req.PaymentTypes)),
		StatementID:   req.StatementID,
	})
	if err != nil {
		writeError(w, r, "statement_save_error", err)
		return
	}

	logger.Annotate(r.Context(), "inserted", inserted)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("Saved %d expenses", inserted),
		"inserted": inserted,
	})
}

func (h *Handler) StatementsList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	uploads, err := h.statements.ListStatements(r.Context(), userID)
	if err != nil {
		writeError(w, r, "statements_list_error", err)
		return
	}
	if uploads == nil {
		uploads = []models.StatementUpload{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"statements": uploads})
}

func (h *Handler) StatementsExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	statementID := r.PathValue("id")
	logger.Annotate(r.Context(), "statement_id", statementID)

	expenses, err := h.statements.StatementExpenses(r.Context(), userID, statementID)
	if err != nil {
		writeError(w, r, "statement_expenses_error", err)
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}
