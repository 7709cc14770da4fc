/*
 * @module service/mapper/payloads
 * @description Wire payload shapes expected by the Pennylane API
 * @architecture adapter - outbound data contract
 * @documentReference dev_docs/pennylane_api.md
 * @stateFlow built by the mappers, validated, then serialized by the client
 * @rules field names and shapes reproduce the remote contract exactly
 * @dependencies go-playground/validator struct tags
 * @refs service/mapper/customer_mapper.go, product_mapper.go, invoice_mapper.go
 */

package mapper

// AddressPayload is a postal address sub-object. When present, all four
// fields must be filled.
type AddressPayload struct {
	Address       string `json:"address" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	City          string `json:"city" validate:"required"`
	CountryAlpha2 string `json:"country_alpha2" validate:"required,len=2"`
}

// CustomerPayload is the individual-customer resource shape.
type CustomerPayload struct {
	FirstName         string          `json:"first_name" validate:"required"`
	LastName          string          `json:"last_name" validate:"required"`
	BillingAddress    AddressPayload  `json:"billing_address" validate:"required"`
	DeliveryAddress   *AddressPayload `json:"delivery_address,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Emails            []string        `json:"emails,omitempty" validate:"omitempty,dive,email"`
	ExternalReference string          `json:"external_reference" validate:"required"`
}

// Product types accepted by the remote API.
const (
	ProductTypeGoods   = "GOODS"
	ProductTypeService = "SERVICE"
)

// ProductPayload is the product resource shape.
type ProductPayload struct {
	Label             string  `json:"label" validate:"required"`
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"external_reference" validate:"required"`
	PriceBeforeTax    float64 `json:"price_before_tax" validate:"gte=0"`
	VATRate           string  `json:"vat_rate" validate:"required,vat_rate"`
	Unit              string  `json:"unit" validate:"required"`
	Currency          string  `json:"currency" validate:"required,len=3"`
	Reference         string  `json:"reference" validate:"required"`
	ProductType       string  `json:"product_type" validate:"required,oneof=GOODS SERVICE"`
	LedgerAccountID   string  `json:"ledger_account_id,omitempty"`
}

// InvoiceCustomerPayload is the inline customer block on an invoice.
type InvoiceCustomerPayload struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required"`
}

// LineItemPayload is one invoice line.
type LineItemPayload struct {
	Description         string  `json:"description" validate:"required"`
	Quantity            int     `json:"quantity" validate:"gte=1"`
	UnitPriceWithoutVAT float64 `json:"unit_price_without_vat"`
	VATRate             string  `json:"vat_rate" validate:"required,vat_rate"`
	ProductID           *int64  `json:"product_id,omitempty"`
	SKU                 string  `json:"sku,omitempty"`
	AccountNumber       string  `json:"account_number,omitempty"`
}

// InvoicePayload is the customer-invoice resource shape.
type InvoicePayload struct {
	Customer          InvoiceCustomerPayload `json:"customer" validate:"required"`
	JournalCode       string                 `json:"journal_code" validate:"required"`
	Date              string                 `json:"date" validate:"required"`
	DueDate           string                 `json:"due_date" validate:"required"`
	InvoiceNumber     string                 `json:"invoice_number" validate:"required"`
	Currency          string                 `json:"currency" validate:"required,len=3"`
	LineItems         []LineItemPayload      `json:"line_items" validate:"required,min=1,dive"`
	TotalAmount       float64                `json:"total_amount"`
	TotalTax          float64                `json:"total_tax"`
	ExternalReference string                 `json:"external_reference" validate:"required"`
	Reference         string                 `json:"reference,omitempty"`
}
