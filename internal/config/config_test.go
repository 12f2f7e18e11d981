package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SPENDBOOK_CONFIG", "SPENDBOOK_DB_PATH", "PORT", "SPENDBOOK_UPLOADS_DIR", "SPENDBOOK_PASSWORD",
		"SPENDBOOK_SESSION_TTL", "SPENDBOOK_MAX_UPLOAD_MB", "SPENDBOOK_PDF_EXTRACTOR", "SPENDBOOK_PDFTOTEXT",
		"SPENDBOOK_CATEGORY_RULES", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./data/spendbook.db", cfg.DBPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, filepath.Join("data", "uploads"), cfg.UploadsDir)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "native", cfg.PDFExtractor)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPENDBOOK_DB_PATH", "/var/lib/spendbook/db.sqlite")
	t.Setenv("PORT", "9090")
	t.Setenv("SPENDBOOK_SESSION_TTL", "12h")
	t.Setenv("SPENDBOOK_MAX_UPLOAD_MB", "25")
	t.Setenv("SPENDBOOK_PDF_EXTRACTOR", "pdftotext")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/spendbook/db.sqlite", cfg.DBPath)
	assert.Equal(t, "/var/lib/spendbook/uploads", cfg.UploadsDir)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(25), cfg.MaxUploadMB)
	assert.Equal(t, "pdftotext", cfg.PDFExtractor)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "spendbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /srv/spendbook.db
port: "7000"
session_ttl: 48h
category_rules: /etc/spendbook/rules.yaml
`), 0o644))
	t.Setenv("SPENDBOOK_CONFIG", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/spendbook.db", cfg.DBPath)
	assert.Equal(t, "7001", cfg.Port, "environment wins over the file")
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "/etc/spendbook/rules.yaml", cfg.CategoryRules)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPENDBOOK_PDF_EXTRACTOR", "ocr")
	_, err := Load()
	assert.ErrorContains(t, err, "pdf_extractor")

	clearEnv(t)
	t.Setenv("SPENDBOOK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.MaxUploadMB = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SessionTTL = 0
	assert.Error(t, cfg.Validate())
}
