package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// TestTransferValidationProperty: only positive amounts between distinct users pass.
func TestTransferValidationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fromID := rapid.Int64Range(1, 1000).Draw(t, "fromID")
		toID := rapid.Int64Range(1, 1000).Draw(t, "toID")
		cents := rapid.Int64Range(-100_000, 100_000).Draw(t, "cents")
		amount := decimal.New(cents, -2)

		err := ValidateTransfer(fromID, toID, amount)

		switch {
		case cents <= 0:
			if err != ErrInvalidAmount {
				t.Fatalf("amount %s: got %v, want ErrInvalidAmount", amount, err)
			}
		case fromID == toID:
			if err != ErrSelfTransfer {
				t.Fatalf("self transfer: got %v, want ErrSelfTransfer", err)
			}
		default:
			if err != nil {
				t.Fatalf("valid transfer %d -> %d of %s rejected: %v", fromID, toID, amount, err)
			}
		}
	})
}
