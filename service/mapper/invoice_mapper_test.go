package mapper

import (
	"testing"
	"time"

	"pennylane-sync-service/service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *models.StoreOrder {
	customerID := int64(42)
	productID := int64(7)
	return &models.StoreOrder{
		ID:              100,
		Number:          "ORD-0100",
		CustomerID:      &customerID,
		Email:           "jean.dupont@example.com",
		FirstName:       "Jean",
		LastName:        "Dupont",
		BillingAddress1: "12 rue de la Paix",
		BillingPostcode: "75002",
		BillingCity:     "Paris",
		BillingCountry:  "FR",
		Currency:        "EUR",
		Total:           decimal.NewFromInt(120),
		TotalTax:        decimal.NewFromInt(20),
		OrderedAt:       time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
		Items: []models.StoreOrderItem{
			{
				ProductID: &productID,
				Name:      "Mechanical Keyboard",
				SKU:       "ABC123",
				Quantity:  1,
				UnitPrice: decimal.NewFromInt(100),
				VATRate:   20,
			},
		},
	}
}

func TestMapInvoice(t *testing.T) {
	m := NewMapper(Settings{JournalCode: "VTE", AccountNumber: "707"})
	payload := m.MapInvoice(testOrder())

	assert.Equal(t, "Jean Dupont", payload.Customer.Name)
	assert.Equal(t, "jean.dupont@example.com", payload.Customer.Email)
	assert.Equal(t, "VTE", payload.JournalCode)
	assert.Equal(t, "2026-03-15", payload.Date)
	assert.Equal(t, "2026-04-14", payload.DueDate)
	assert.Equal(t, "ORD-0100", payload.InvoiceNumber)
	assert.Equal(t, "EUR", payload.Currency)
	assert.Equal(t, "WC-100", payload.ExternalReference)
	assert.Equal(t, 120.0, payload.TotalAmount)
	assert.Equal(t, 20.0, payload.TotalTax)

	require.Len(t, payload.LineItems, 1)
	line := payload.LineItems[0]
	assert.Equal(t, "Mechanical Keyboard", line.Description)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 100.0, line.UnitPriceWithoutVAT)
	assert.Equal(t, "FR_200", line.VATRate)
	assert.Equal(t, "ABC123", line.SKU)
	assert.Equal(t, "707", line.AccountNumber)
}

func TestMapInvoiceShippingLine(t *testing.T) {
	m := NewMapper(Settings{JournalCode: "VTE"})

	order := testOrder()
	order.ShippingTotal = decimal.NewFromInt(10)
	order.ShippingTax = decimal.NewFromInt(2)

	payload := m.MapInvoice(order)
	require.Len(t, payload.LineItems, 2)

	shipping := payload.LineItems[1]
	assert.Equal(t, "Shipping", shipping.Description)
	assert.Equal(t, 1, shipping.Quantity)
	assert.Equal(t, 10.0, shipping.UnitPriceWithoutVAT)
	// 2 / 10 * 100 = 20% -> FR_200
	assert.Equal(t, "FR_200", shipping.VATRate)
}

func TestMapInvoiceNoShippingLineWhenFree(t *testing.T) {
	m := NewMapper(Settings{JournalCode: "VTE"})

	order := testOrder()
	order.ShippingTotal = decimal.Zero
	order.ShippingTax = decimal.Zero

	payload := m.MapInvoice(order)
	assert.Len(t, payload.LineItems, 1)
}

func TestMapInvoiceCurrencyFallback(t *testing.T) {
	m := NewMapper(Settings{JournalCode: "VTE", Currency: "EUR"})

	order := testOrder()
	order.Currency = ""

	payload := m.MapInvoice(order)
	assert.Equal(t, "EUR", payload.Currency)
}

func TestMapInvoiceGuestCustomerName(t *testing.T) {
	m := NewMapper(Settings{JournalCode: "VTE"})

	order := testOrder()
	order.FirstName = ""
	order.LastName = ""

	payload := m.MapInvoice(order)
	assert.Equal(t, "jean.dupont@example.com", payload.Customer.Name)
}
