/*
 * @module testutil/test_helper
 * @description Test infrastructure: in-memory database and entity factories
 * @architecture test infrastructure - shared tooling and data factories
 * @documentReference dev_docs/test_plan.md
 * @stateFlow test database setup -> data creation -> test execution -> cleanup
 * @rules factories create valid entities by default; option funcs override single fields
 * @dependencies gorm.io/driver/sqlite, gorm.io/gorm, service/models
 * @refs service/models
 */

package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"pennylane-sync-service/service/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB wraps an in-memory database with the full schema migrated.
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB creates a fresh in-memory database.
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	err = db.AutoMigrate(
		&models.SystemConfig{},
		&models.SyncState{},
		&models.GuestSyncState{},
		&models.SyncHistoryEntry{},
		&models.StoreCustomer{},
		&models.StoreProduct{},
		&models.StoreOrder{},
		&models.StoreOrderItem{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB empties every table.
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"system_configs",
		"sync_states",
		"guest_sync_states",
		"sync_history_entries",
		"store_customers",
		"store_products",
		"store_orders",
		"store_order_items",
	}
	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close closes the database connection.
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory creates storefront entities for tests.
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory creates a factory on top of db.
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// CustomerOption mutates a customer before it is saved.
type CustomerOption func(*models.StoreCustomer)

// CreateCustomer creates a valid customer account.
func (f *TestDataFactory) CreateCustomer(opts ...CustomerOption) *models.StoreCustomer {
	n := nextSeq()
	customer := &models.StoreCustomer{
		FirstName:       "Jean",
		LastName:        "Dupont",
		Email:           fmt.Sprintf("jean.dupont.%d@example.com", n),
		BillingAddress1: "12 rue de la Paix",
		BillingPostcode: "75002",
		BillingCity:     "Paris",
		BillingCountry:  "FR",
	}
	for _, opt := range opts {
		opt(customer)
	}

	if err := f.DB.Create(customer).Error; err != nil {
		panic(fmt.Sprintf("failed to create test customer: %v", err))
	}
	return customer
}

// ProductOption mutates a product before it is saved.
type ProductOption func(*models.StoreProduct)

// CreateProduct creates a valid physical product.
func (f *TestDataFactory) CreateProduct(opts ...ProductOption) *models.StoreProduct {
	n := nextSeq()
	product := &models.StoreProduct{
		Name:    fmt.Sprintf("Test Product %d", n),
		SKU:     fmt.Sprintf("SKU-%d", n),
		Price:   decimal.NewFromInt(100),
		VATRate: 20,
	}
	for _, opt := range opts {
		opt(product)
	}

	if err := f.DB.Create(product).Error; err != nil {
		panic(fmt.Sprintf("failed to create test product: %v", err))
	}
	return product
}

// OrderOption mutates an order before it is saved.
type OrderOption func(*models.StoreOrder)

// CreateOrder creates a valid order with one line item. Pass a nil customer ID
// through WithGuestEmail to create a guest checkout.
func (f *TestDataFactory) CreateOrder(customerID *int64, opts ...OrderOption) *models.StoreOrder {
	n := nextSeq()
	order := &models.StoreOrder{
		Number:          fmt.Sprintf("ORD-%04d", n),
		CustomerID:      customerID,
		Email:           fmt.Sprintf("buyer.%d@example.com", n),
		FirstName:       "Jean",
		LastName:        "Dupont",
		BillingAddress1: "12 rue de la Paix",
		BillingPostcode: "75002",
		BillingCity:     "Paris",
		BillingCountry:  "FR",
		Currency:        "EUR",
		Status:          "completed",
		Total:           decimal.NewFromInt(120),
		TotalTax:        decimal.NewFromInt(20),
		OrderedAt:       time.Now(),
		Items: []models.StoreOrderItem{
			{
				Name:      "Test Product",
				SKU:       fmt.Sprintf("SKU-%d", n),
				Quantity:  1,
				UnitPrice: decimal.NewFromInt(100),
				VATRate:   20,
			},
		},
	}
	for _, opt := range opts {
		opt(order)
	}

	if err := f.DB.Create(order).Error; err != nil {
		panic(fmt.Sprintf("failed to create test order: %v", err))
	}
	return order
}

// WithGuestEmail turns the order into a guest checkout for the given email.
func WithGuestEmail(email string) OrderOption {
	return func(o *models.StoreOrder) {
		o.CustomerID = nil
		o.Email = email
	}
}
