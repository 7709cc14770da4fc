/*
 * @module service/mapper/mapper
 * @description Shared mapper settings, external references and VAT rate formatting
 * @architecture adapter - pure transformation layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow entity snapshot + fixed settings -> wire payload
 * @rules mapping is deterministic: the same entity state always yields the same payload
 * @dependencies fmt, math, strings
 * @refs service/syncer
 */

package mapper

import (
	"fmt"
	"math"
	"strings"
)

// Settings are the fixed invoicing parameters injected into the mappers.
// They come from the settings store and never change during a mapping call,
// which keeps the mappers pure.
type Settings struct {
	// Two-letter country code prefixed to VAT rates, e.g. FR.
	Country string
	// ISO currency code stamped on products and invoices.
	Currency string
	// Default ledger account attached to products, optional.
	LedgerAccountID string
	// Revenue account number stamped on invoice lines, optional.
	AccountNumber string
	// Sales journal code on invoices.
	JournalCode string
}

// Mapper converts storefront entity snapshots into remote payloads.
type Mapper struct {
	settings Settings
}

// NewMapper creates a mapper with the given invoicing settings.
func NewMapper(settings Settings) *Mapper {
	if settings.Country == "" {
		settings.Country = "FR"
	}
	if settings.Currency == "" {
		settings.Currency = "EUR"
	}
	return &Mapper{settings: settings}
}

// CustomerExternalReference derives the deterministic remote key for a
// customer account.
func CustomerExternalReference(localID int64) string {
	return fmt.Sprintf("WC-%d", localID)
}

// GuestExternalReference derives the deterministic remote key for a guest
// checkout, keyed by the normalized email.
func GuestExternalReference(email string) string {
	return "WC-GUEST-" + strings.ToLower(strings.TrimSpace(email))
}

// ProductExternalReference derives the deterministic remote key for a product.
func ProductExternalReference(localID int64) string {
	return fmt.Sprintf("WC-%d", localID)
}

// OrderExternalReference derives the deterministic remote key for an order.
func OrderExternalReference(localID int64) string {
	return fmt.Sprintf("WC-%d", localID)
}

// FallbackSKU is the product reference used when the storefront has no SKU.
func FallbackSKU(localID int64) string {
	return fmt.Sprintf("WC-PROD-%d", localID)
}

// FormatVATRate renders a percentage rate in the remote format: the rate times
// ten, rounded, appended to the country code. 20% becomes FR_200, 5.5% FR_55.
func FormatVATRate(rate float64, country string) string {
	return fmt.Sprintf("%s_%d", country, int(math.Round(rate*10)))
}

// composeAddress joins the primary address line and the optional second line
// with a newline, omitting empty lines.
func composeAddress(line1, line2 string) string {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if line2 == "" {
		return line1
	}
	if line1 == "" {
		return line2
	}
	return line1 + "\n" + line2
}
