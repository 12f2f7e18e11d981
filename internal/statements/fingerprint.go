package statements

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/shopspring/decimal"
)

// StatementID fingerprints an upload by filename, size and owner. Re-uploading the
// same file yields the same id.
func StatementID(originalFilename string, sizeBytes int64, userID int64) string {
	return sha256Hex(originalFilename + strconv.FormatInt(sizeBytes, 10) + strconv.FormatInt(userID, 10))
}

// TransactionHash fingerprints one transaction. Identical purchases on the same day share a
// hash and are told apart by their sequence number.
func TransactionHash(postedDate, merchantText string, amount decimal.Decimal, fullDescription string, paymentTypeID int64) string {
	return sha256Hex(postedDate + merchantText + amount.StringFixed(2) + fullDescription + strconv.FormatInt(paymentTypeID, 10))
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
