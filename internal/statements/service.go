// Package statements is the ingestion pipeline: it fingerprints uploads, runs the
// matching parser, enriches transactions and persists them as expenses.
package statements

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"spendbook/internal/categorize"
	"spendbook/internal/database"
	"spendbook/internal/filestore"
	"spendbook/internal/logger"
	"spendbook/internal/merchant"
	"spendbook/internal/models"
	"spendbook/internal/parser"
)

const unknownName = "Unknown"

type Service struct {
	db      *database.DB
	files   *filestore.Store
	parsers *parser.Registry
	refine  merchant.RefineFunc
	suggest categorize.SuggestFunc
}

// NewService wires the pipeline. A nil refine defaults to merchant.RefineName;
// a nil suggest makes every transaction Uncategorized.
func NewService(db *database.DB, files *filestore.Store, parsers *parser.Registry,
	refine merchant.RefineFunc, suggest categorize.SuggestFunc) *Service {
	if refine == nil {
		refine = merchant.RefineName
	}
	if suggest == nil {
		suggest = func(string) int64 { return 0 }
	}
	return &Service{db: db, files: files, parsers: parsers, refine: refine, suggest: suggest}
}

// UploadInput is one uploaded statement file
type UploadInput struct {
	UserID   int64
	Filename string
	Body     io.Reader
}

// UploadResult is the parsed preview of a statement. Nothing in it is persisted as expenses yet.
type UploadResult struct {
	Duplicate      bool
	StatementID    string
	FileName       string
	Transactions   []models.EnrichedTransaction
	UnmatchedLines int
	Period         *parser.Period
	Warning        string
}

// Upload stores the file, parses it and returns enriched transactions. Re-uploading a
// statement the user already has is reported through Duplicate, not as an error.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	l := logger.FromContext(ctx)

	if strings.TrimSpace(in.Filename) == "" || in.Body == nil {
		return nil, ErrNoFileProvided
	}
	p, ok := s.parsers.ForFile(in.Filename)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, in.Filename)
	}

	saved, err := s.files.Save(in.UserID, in.Filename, in.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: store upload: %w", ErrPersistence, err)
	}

	statementID := StatementID(in.Filename, saved.Size, in.UserID)
	l = l.With("statement_id", statementID, "file_name", in.Filename)

	duplicate := false
	if _, err := s.db.GetStatementUpload(ctx, in.UserID, statementID); err == nil {
		duplicate = true
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	path := s.files.FullPath(saved.Name)
	parsed, err := p.Parse(ctx, path)
	if err != nil {
		// The stored copy stays on disk for inspection
		l.Error("statement_parse_failed", "parser", p.Name(), "path", path, "error", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}

	result := &UploadResult{
		Duplicate:      duplicate,
		StatementID:    statementID,
		FileName:       in.Filename,
		Transactions:   make([]models.EnrichedTransaction, 0, len(parsed.Transactions)),
		UnmatchedLines: parsed.UnmatchedLines,
		Period:         parsed.Period,
		Warning:        parsed.Warning,
	}
	for _, raw := range parsed.Transactions {
		result.Transactions = append(result.Transactions, s.Enrich(raw))
	}

	switch {
	case duplicate:
		if err := s.files.Delete(saved.Name); err != nil {
			l.Warn("statement_duplicate_cleanup_failed", "path", path, "error", err.Error())
		}
	case parsed.Degraded():
		l.Warn("statement_parse_degraded", "parser", p.Name(), "path", path, "warning", parsed.Warning)
	default:
		err := s.db.CreateStatementUpload(ctx, &models.StatementUpload{
			ID:               statementID,
			UserID:           in.UserID,
			OriginalFilename: in.Filename,
			FilePath:         saved.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	l.Info("statement_uploaded",
		"parser", p.Name(),
		"duplicate", duplicate,
		"transactions", len(result.Transactions),
		"unmatched_lines", result.UnmatchedLines,
	)
	return result, nil
}

// Enrich derives the display and classification fields for one parsed transaction.
func (s *Service) Enrich(raw models.RawTransaction) models.EnrichedTransaction {
	full := strings.TrimSpace(raw.Merchant)
	refined := s.refine(full)

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = refined
	}
	if name == "" {
		name = unknownName
	}

	return models.EnrichedTransaction{
		RawTransaction:      raw,
		ExpenseName:         name,
		FullDescription:     full,
		RefinedMerchantName: refined,
		SuggestedCategoryID: s.suggest(full),
	}
}

// SaveInput is a reviewed batch of transactions to persist
type SaveInput struct {
	UserID        int64
	Transactions  []models.EnrichedTransaction
	PaymentTypeID string
	StatementID   string
}

type sequenceKey struct {
	hash string
	date string
}

// SaveExpenses persists the batch as expenses in one transaction and returns the number of
// rows written. Either every row is written or none is.
func (s *Service) SaveExpenses(ctx context.Context, in SaveInput) (int64, error) {
	if len(in.Transactions) == 0 {
		return 0, ErrNoTransactionsToSave
	}
	paymentTypeID, err := strconv.ParseInt(strings.TrimSpace(in.PaymentTypeID), 10, 64)
	if err != nil || paymentTypeID <= 0 {
		return 0, ErrInvalidPaymentType
	}
	for i, t := range in.Transactions {
		if _, err := time.Parse("2006-01-02", t.PostedDate); err != nil {
			return 0, fmt.Errorf("%w: transaction %d has posted date %q", ErrInvalidTransaction, i, t.PostedDate)
		}
	}

	var statementID *string
	if id := strings.TrimSpace(in.StatementID); id != "" {
		statementID = &id
	}

	var inserted int64
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		uncategorized, err := tx.UncategorizedCategoryID(ctx)
		if err != nil {
			return err
		}
		if statementID != nil {
			if _, err := tx.GetStatementUpload(ctx, in.UserID, *statementID); errors.Is(err, database.ErrNotFound) {
				return ErrStatementNotFound
			} else if err != nil {
				return err
			}
		}

		merchants := merchant.NewResolver(tx)
		sequences := make(map[sequenceKey]int)
		rows := make([]models.Expense, 0, len(in.Transactions))

		for _, t := range in.Transactions {
			merchantName := strings.TrimSpace(t.RefinedMerchantName)
			if merchantName == "" {
				merchantName = strings.TrimSpace(t.Merchant)
			}
			if merchantName == "" {
				merchantName = unknownName
			}
			merchantID, err := merchants.Resolve(ctx, merchantName)
			if err != nil {
				return err
			}

			hash := TransactionHash(t.PostedDate, t.Merchant, t.Amount, t.FullDescription, paymentTypeID)
			key := sequenceKey{hash: hash, date: t.PostedDate}
			prev, seen := sequences[key]
			if !seen {
				prev, err = tx.MaxSequenceNumber(ctx, in.UserID, hash, t.PostedDate)
				if err != nil {
					return err
				}
			}
			sequences[key] = prev + 1

			categoryID := t.SuggestedCategoryID
			if categoryID <= 0 {
				categoryID = uncategorized
			}

			rows = append(rows, models.Expense{
				UserID:          in.UserID,
				Amount:          t.Amount,
				Date:            t.PostedDate,
				CategoryID:      categoryID,
				PaymentTypeID:   paymentTypeID,
				MerchantID:      merchantID,
				Notes:           t.FullDescription,
				SequenceNumber:  prev + 1,
				StatementID:     statementID,
				TransactionHash: hash,
			})
		}

		inserted, err = tx.InsertExpenses(ctx, rows)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrStatementNotFound) || errors.Is(err, database.ErrMissingSeedData) {
			return 0, err
		}
		logger.FromContext(ctx).Error("statement_save_failed", "user_id", in.UserID, "error", err.Error())
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	logger.FromContext(ctx).Info("statement_expenses_saved", "user_id", in.UserID, "inserted", inserted)
	return inserted, nil
}

// ReuploadResult reports what Reupload removed
type ReuploadResult struct {
	DeletedExpenses  int64
	DeletedStatement bool
}

// Reupload removes a statement's expenses and its upload record in one transaction so the
// same file can be ingested again. A statement that does not exist is not an error.
func (s *Service) Reupload(ctx context.Context, userID int64, statementID string) (*ReuploadResult, error) {
	statementID = strings.TrimSpace(statementID)
	if statementID == "" {
		return nil, fmt.Errorf("%w: statement id is required", ErrInvalidInput)
	}

	var result ReuploadResult
	var storedFile string
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		upload, err := tx.GetStatementUpload(ctx, userID, statementID)
		if err == nil {
			storedFile = upload.FilePath
		} else if !errors.Is(err, database.ErrNotFound) {
			return err
		}

		result.DeletedExpenses, err = tx.DeleteStatementExpenses(ctx, userID, statementID)
		if err != nil {
			return err
		}
		n, err := tx.DeleteStatementUpload(ctx, userID, statementID)
		if err != nil {
			return err
		}
		result.DeletedStatement = n > 0
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Error("statement_reupload_failed", "statement_id", statementID, "error", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := s.files.Delete(storedFile); err != nil {
		logger.FromContext(ctx).Warn("statement_file_delete_failed", "statement_id", statementID, "error", err.Error())
	}

	logger.FromContext(ctx).Info("statement_reuploaded",
		"statement_id", statementID,
		"deleted_expenses", result.DeletedExpenses,
		"deleted_statement", result.DeletedStatement,
	)
	return &result, nil
}

// ListStatements returns the user's uploads, newest first
func (s *Service) ListStatements(ctx context.Context, userID int64) ([]models.StatementUpload, error) {
	uploads, err := s.db.ListStatementUploads(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return uploads, nil
}

// StatementExpenses returns the expenses imported from one of the user's statements
func (s *Service) StatementExpenses(ctx context.Context, userID int64, statementID string) ([]models.Expense, error) {
	if _, err := s.db.GetStatementUpload(ctx, userID, statementID); errors.Is(err, database.ErrNotFound) {
		return nil, ErrStatementNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	expenses, err := s.db.ListStatementExpenses(ctx, userID, statementID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return expenses, nil
}
