package mapper

import (
	"testing"

	"pennylane-sync-service/service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMapProduct(t *testing.T) {
	m := NewMapper(Settings{LedgerAccountID: "ledger-1"})

	product := &models.StoreProduct{
		ID:      42,
		Name:    "Mechanical Keyboard",
		SKU:     "ABC123",
		Price:   decimal.NewFromInt(100),
		VATRate: 20,
	}

	payload := m.MapProduct(product)
	assert.Equal(t, "Mechanical Keyboard", payload.Label)
	assert.Equal(t, "WC-42", payload.ExternalReference)
	assert.Equal(t, "ABC123", payload.Reference)
	assert.Equal(t, 100.0, payload.PriceBeforeTax)
	assert.Equal(t, "FR_200", payload.VATRate)
	assert.Equal(t, "piece", payload.Unit)
	assert.Equal(t, "EUR", payload.Currency)
	assert.Equal(t, ProductTypeGoods, payload.ProductType)
	assert.Equal(t, "ledger-1", payload.LedgerAccountID)
}

func TestMapProductSKUFallback(t *testing.T) {
	m := NewMapper(Settings{})

	product := &models.StoreProduct{ID: 42, Name: "No SKU", Price: decimal.NewFromInt(10)}
	payload := m.MapProduct(product)
	assert.Equal(t, "WC-PROD-42", payload.Reference)
}

func TestMapProductServiceType(t *testing.T) {
	m := NewMapper(Settings{})

	t.Run("virtual", func(t *testing.T) {
		product := &models.StoreProduct{ID: 1, Name: "Warranty", Virtual: true}
		assert.Equal(t, ProductTypeService, m.MapProduct(product).ProductType)
	})

	t.Run("downloadable", func(t *testing.T) {
		product := &models.StoreProduct{ID: 2, Name: "Ebook", Downloadable: true}
		assert.Equal(t, ProductTypeService, m.MapProduct(product).ProductType)
	})

	t.Run("physical", func(t *testing.T) {
		product := &models.StoreProduct{ID: 3, Name: "Chair"}
		assert.Equal(t, ProductTypeGoods, m.MapProduct(product).ProductType)
	})
}

func TestMapProductCustomUnit(t *testing.T) {
	m := NewMapper(Settings{})

	product := &models.StoreProduct{ID: 4, Name: "Cable", Unit: "meter"}
	assert.Equal(t, "meter", m.MapProduct(product).Unit)
}
