package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendbook/internal/auth"
	"spendbook/internal/categorize"
	"spendbook/internal/database"
	"spendbook/internal/filestore"
	"spendbook/internal/merchant"
	"spendbook/internal/parser"
	"spendbook/internal/statements"
)

const statementCSV = `Date,Description,Amount
01/05/2024,STARBUCKS STORE 1234,-5.00
01/05/2024,STARBUCKS STORE 1234,-5.00
01/06/2024,LOCAL HARDWARE 00123 PORTLAND OR,-19.99
`

type apiFixture struct {
	server *httptest.Server
	client *http.Client
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Init())

	files, err := filestore.New(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	categories, err := db.ListCategories(context.Background())
	require.NoError(t, err)
	engine, err := categorize.LoadEmbedded()
	require.NoError(t, err)
	suggester, err := categorize.NewSuggester(engine, categories)
	require.NoError(t, err)

	svc := statements.NewService(db, files, parser.DefaultRegistry(parser.NativeExtractor{}), merchant.RefineName, suggester.Func())
	a := auth.New(db.DB, "secret", time.Hour)
	h := New(db, a, svc, 1<<20)

	server := httptest.NewServer(h.Routes())
	t.Cleanup(server.Close)

	return &apiFixture{server: server, client: server.Client()}
}

func (f *apiFixture) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func (f *apiFixture) postJSON(t *testing.T, token, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return f.do(t, req)
}

func (f *apiFixture) get(t *testing.T, token, path string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return f.do(t, req)
}

func (f *apiFixture) upload(t *testing.T, token, path, filename, content string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return f.do(t, req)
}

func (f *apiFixture) login(t *testing.T, userID int64) string {
	t.Helper()
	resp, _ := f.postJSON(t, "", "/api/login", map[string]any{"user_id": userID, "password": "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

func TestPublicEndpoints(t *testing.T) {
	f := newAPI(t)

	resp, body := f.get(t, "", "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = f.get(t, "", "/api/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "version")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	f := newAPI(t)

	resp, _ := f.get(t, "", "/api/statements")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.get(t, "not-a-token", "/api/statements")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.postJSON(t, "", "/api/login", map[string]any{"user_id": 1, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.postJSON(t, "", "/api/login", map[string]any{"password": "secret"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, 1)

	resp, _ := f.postJSON(t, token, "/api/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.get(t, token, "/api/statements")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadSaveReuploadFlow(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, 1)

	resp, body := f.upload(t, token, "/api/statements/upload", "jan.csv", statementCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["duplicate"])
	assert.Equal(t, "jan.csv", body["fileName"])
	assert.Equal(t, "Parsed 3 transactions", body["message"])
	assert.Equal(t, float64(0), body["unmatched_lines"])
	statementID, _ := body["statement_id"].(string)
	assert.Len(t, statementID, 64)

	txns, ok := body["transactions"].([]any)
	require.True(t, ok)
	require.Len(t, txns, 3)
	first := txns[0].(map[string]any)
	assert.Equal(t, "2024-01-05", first["postedDate"])
	assert.Equal(t, "Starbucks", first["refinedMerchantName"])
	assert.Equal(t, "Starbucks", first["expenseName"])
	assert.Equal(t, "STARBUCKS STORE 1234", first["fullDescription"])
	third := txns[2].(map[string]any)
	assert.Equal(t, "Local Hardware", third["refinedMerchantName"])

	// second upload of the same file conflicts
	resp, conflict := f.upload(t, token, "/api/statements/upload", "jan.csv", statementCSV)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, statementID, conflict["statement_id"])
	assert.NotEmpty(t, conflict["message"])

	resp, forced := f.upload(t, token, "/api/statements/upload?force=true", "jan.csv", statementCSV)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, forced["duplicate"])

	// persist the reviewed rows; payment type may arrive as a number
	resp, saved := f.postJSON(t, token, "/api/statements/expenses", map[string]any{
		"transactions": txns,
		"paymentTypes": 1,
		"statementId":  statementID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, saved)
	assert.Equal(t, float64(3), saved["inserted"])

	resp, listed := f.get(t, token, "/api/statements/"+statementID+"/expenses")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	expenses := listed["expenses"].([]any)
	require.Len(t, expenses, 3)
	assert.Equal(t, float64(1), expenses[0].(map[string]any)["sequence_number"])
	assert.Equal(t, float64(2), expenses[1].(map[string]any)["sequence_number"])

	// another user cannot see them
	other := f.login(t, 2)
	resp, _ = f.get(t, other, "/api/statements/"+statementID+"/expenses")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, msg := f.postJSON(t, token, "/api/statements/reupload", map[string]any{"statement_id": statementID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, msg["message"], "Removed 3 expenses")

	resp, list := f.get(t, token, "/api/statements")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, list["statements"])

	resp, again := f.upload(t, token, "/api/statements/upload", "jan.csv", statementCSV)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, again["duplicate"])
}

func TestUploadErrors(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, 1)

	resp, _ := f.upload(t, token, "/api/statements/upload", "notes.txt", "hello")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, body := f.upload(t, token, "/api/statements/upload", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file provided", body["message"])

	resp, _ = f.upload(t, token, "/api/statements/upload", "bad.csv", "Date,Description,Amount\nyesterday,X,1.00\n")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, body = f.upload(t, token, "/api/statements/upload", "scan.pdf", "not really a pdf")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["transactions"])
	assert.NotEmpty(t, body["parse_warning"])
	assert.Equal(t, "No transactions found in statement", body["message"])
}

func TestSaveExpensesValidation(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, 1)

	resp, _ := f.postJSON(t, token, "/api/statements/expenses", map[string]any{
		"transactions": []any{},
		"paymentTypes": "1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	txn := map[string]any{"postedDate": "2024-01-05", "merchant": "X", "amount": "-1.00", "fullDescription": "X"}
	resp, _ = f.postJSON(t, token, "/api/statements/expenses", map[string]any{
		"transactions": []any{txn},
		"paymentTypes": "credit card",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := f.postJSON(t, token, "/api/statements/expenses", map[string]any{
		"transactions": []any{txn},
		"paymentTypes": "2",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["inserted"])

	resp, _ = f.postJSON(t, token, "/api/statements/reupload", map[string]any{"statement_id": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReferenceData(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, 1)

	resp, body := f.get(t, token, "/api/categories")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["categories"])

	resp, body = f.get(t, token, "/api/payment-types")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["payment_types"])
}

func TestPaymentTypeIDUnmarshal(t *testing.T) {
	var req saveExpensesRequest
	require.NoError(t, json.Unmarshal([]byte(`{"paymentTypes": 3}`), &req))
	assert.Equal(t, paymentTypeID("3"), req.PaymentTypes)

	require.NoError(t, json.Unmarshal([]byte(`{"paymentTypes": "4"}`), &req))
	assert.Equal(t, paymentTypeID("4"), req.PaymentTypes)

	require.NoError(t, json.Unmarshal([]byte(`{"paymentTypes": null}`), &req))
	assert.Equal(t, paymentTypeID(""), req.PaymentTypes)
}
