package invoicing

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// No 0/O or 1/I.
const numberAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// NewInvoiceNumber returns "OBJ-YYYYMM-XXXXXXXX" for the issue month.
func NewInvoiceNumber(issue time.Time) (string, error) {
	suffix, err := gonanoid.Generate(numberAlphabet, 8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("OBJ-%s-%s", issue.Format("200601"), suffix), nil
}
