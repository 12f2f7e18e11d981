package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"spendbook/internal/auth"
	"spendbook/internal/categorize"
	"spendbook/internal/config"
	"spendbook/internal/database"
	"spendbook/internal/filestore"
	"spendbook/internal/handlers"
	"spendbook/internal/logger"
	"spendbook/internal/merchant"
	"spendbook/internal/parser"
	"spendbook/internal/statements"
	"spendbook/internal/version"
)

func main() {
	// Handle --version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("Spendbook %s\n", version.Get())
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger first
	logger.Init(cfg.LogLevel)
	log := logger.Default()
	ctx := context.Background()

	if cfg.Password == config.Default().Password {
		log.Warn("auth_default_password", "hint", "set SPENDBOOK_PASSWORD")
	}

	// Open database
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Error("database_open_failed", "path", cfg.DBPath, "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	// Initialize schema
	if err := db.Init(); err != nil {
		log.Error("database_init_failed", "error", err.Error())
		os.Exit(1)
	}
	if err := db.RequireSeedData(ctx); err != nil {
		log.Error("database_seed_missing", "error", err.Error())
		os.Exit(1)
	}

	// Initialize auth
	a := auth.New(db.DB, cfg.Password, cfg.SessionTTL)

	// Clean expired sessions on startup
	if n, err := a.CleanExpiredSessions(ctx); err != nil {
		log.Warn("auth_session_cleanup_failed", "error", err.Error())
	} else if n > 0 {
		log.Info("auth_sessions_cleaned", "count", n)
	}

	files, err := filestore.New(cfg.UploadsDir)
	if err != nil {
		log.Error("filestore_init_failed", "path", cfg.UploadsDir, "error", err.Error())
		os.Exit(1)
	}

	var extractor parser.TextExtractor = parser.NativeExtractor{}
	if cfg.PDFExtractor == "pdftotext" {
		extractor = parser.PdftotextExtractor{Binary: cfg.PdftotextPath}
	}

	// Category suggestions bind rule names to category ids once at startup
	rules, err := categorize.Load(cfg.CategoryRules)
	if err != nil {
		log.Error("category_rules_load_failed", "path", cfg.CategoryRules, "error", err.Error())
		os.Exit(1)
	}
	categories, err := db.ListCategories(ctx)
	if err != nil {
		log.Error("categories_load_failed", "error", err.Error())
		os.Exit(1)
	}
	suggester, err := categorize.NewSuggester(rules, categories)
	if err != nil {
		log.Error("category_rules_invalid", "error", err.Error())
		os.Exit(1)
	}

	svc := statements.NewService(db, files, parser.DefaultRegistry(extractor), merchant.RefineName, suggester.Func())
	h := handlers.New(db, a, svc, cfg.MaxUploadBytes())

	log.Info("server_starting",
		"port", cfg.Port,
		"address", "http://localhost:"+cfg.Port,
		"version", version.Version,
		"pdf_extractor", cfg.PDFExtractor,
		"uploads_dir", cfg.UploadsDir,
	)
	if err := http.ListenAndServe(":"+cfg.Port, h.Routes()); err != nil {
		log.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}
