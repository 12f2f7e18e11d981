package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction is one transaction as read from a statement file, before enrichment.
type RawTransaction struct {
	PostedDate      string          `json:"postedDate"`                // YYYY-MM-DD
	TransactionDate string          `json:"transactionDate,omitempty"` // YYYY-MM-DD, two-line dialect only
	Merchant        string          `json:"merchant"`                  // raw merchant/description text
	Amount          decimal.Decimal `json:"amount"`
	Name            string          `json:"name,omitempty"` // parser-assigned expense name, if the source has one
}

// EnrichedTransaction is a RawTransaction plus the fields derived during ingestion.
type EnrichedTransaction struct {
	RawTransaction
	ExpenseName         string `json:"expenseName"`
	FullDescription     string `json:"fullDescription"`
	RefinedMerchantName string `json:"refinedMerchantName"`
	SuggestedCategoryID int64  `json:"suggestedCategoryId"`
}

// StatementUpload records one uploaded statement. ID is a content fingerprint, not generated.
type StatementUpload struct {
	ID               string    `json:"id"`
	UserID           int64     `json:"user_id"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"-"` // stored filename in filestore
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Expense is a persisted expense row
type Expense struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"` // YYYY-MM-DD
	CategoryID      int64           `json:"category_id"`
	PaymentTypeID   int64           `json:"payment_type_id"`
	MerchantID      int64           `json:"merchant_id"`
	Notes           string          `json:"notes"`
	SequenceNumber  int             `json:"sequence_number"`
	StatementID     *string         `json:"statement_id,omitempty"`
	TransactionHash string          `json:"hash"`
	CreatedAt       time.Time       `json:"created_at"`

	// Joined fields for display
	MerchantName string `json:"merchant_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

// Merchant is shared across all users and statements.
type Merchant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is an expense category
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"category"`
}

// PaymentType is how an expense was paid (credit card, debit card, ...)
type PaymentType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Session is an authenticated login session
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Category names that must exist in every database
const (
	UncategorizedCategory = "Uncategorized"
)
