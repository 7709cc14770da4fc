/*
 * @module service/models/store_models
 * @description Read models over the storefront replica tables (customers, products, orders)
 * @architecture layered architecture - entity model
 * @documentReference dev_docs/storefront_replica.md
 * @stateFlow rows are written by the storefront replication job, read-only for this service
 * @rules the sync engine only reads fields here; sync flags live in sync_state models
 * @dependencies gorm.io/gorm, github.com/lib/pq, github.com/shopspring/decimal
 * @refs service/store, service/mapper
 */

package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// StoreCustomer is a storefront customer account.
type StoreCustomer struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"size:100"`
	LastName  string `json:"last_name" gorm:"size:100"`
	Email     string `json:"email" gorm:"size:254;index"`
	Phone     string `json:"phone,omitempty" gorm:"size:40"`
	// Additional billing emails collected by the storefront.
	ExtraEmails pq.StringArray `json:"extra_emails,omitempty" gorm:"type:text[]"`

	BillingAddress1   string `json:"billing_address_1" gorm:"size:255"`
	BillingAddress2   string `json:"billing_address_2,omitempty" gorm:"size:255"`
	BillingPostcode   string `json:"billing_postcode" gorm:"size:20"`
	BillingCity       string `json:"billing_city" gorm:"size:100"`
	BillingCountry    string `json:"billing_country" gorm:"size:2"`
	ShippingAddress1  string `json:"shipping_address_1,omitempty" gorm:"size:255"`
	ShippingAddress2  string `json:"shipping_address_2,omitempty" gorm:"size:255"`
	ShippingPostcode  string `json:"shipping_postcode,omitempty" gorm:"size:20"`
	ShippingCity      string `json:"shipping_city,omitempty" gorm:"size:100"`
	ShippingCountry   string `json:"shipping_country,omitempty" gorm:"size:2"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is the customer name shown in logs and history entries.
func (c *StoreCustomer) DisplayName() string {
	if c.FirstName == "" && c.LastName == "" {
		return c.Email
	}
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// StoreProduct is a storefront product.
type StoreProduct struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	Description  string          `json:"description,omitempty" gorm:"type:text"`
	SKU          string          `json:"sku,omitempty" gorm:"size:100;index"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	VATRate      float64         `json:"vat_rate" gorm:"default:0"`
	Virtual      bool            `json:"virtual" gorm:"not null;default:false"`
	Downloadable bool            `json:"downloadable" gorm:"not null;default:false"`
	Unit         string          `json:"unit,omitempty" gorm:"size:20"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsService reports whether the product maps to a SERVICE on the remote side.
// Physical goods are anything neither virtual nor downloadable.
func (p *StoreProduct) IsService() bool {
	return p.Virtual || p.Downloadable
}

// StoreOrder is a storefront order, invoiced on the remote side.
type StoreOrder struct {
	ID         int64  `json:"id" gorm:"primaryKey"`
	Number     string `json:"number" gorm:"size:40;not null;index"`
	// Nil for guest checkouts.
	CustomerID *int64 `json:"customer_id,omitempty" gorm:"index"`
	Email      string `json:"email" gorm:"size:254;index"`
	FirstName  string `json:"first_name,omitempty" gorm:"size:100"`
	LastName   string `json:"last_name,omitempty" gorm:"size:100"`

	BillingAddress1 string `json:"billing_address_1,omitempty" gorm:"size:255"`
	BillingAddress2 string `json:"billing_address_2,omitempty" gorm:"size:255"`
	BillingPostcode string `json:"billing_postcode,omitempty" gorm:"size:20"`
	BillingCity     string `json:"billing_city,omitempty" gorm:"size:100"`
	BillingCountry  string `json:"billing_country,omitempty" gorm:"size:2"`

	Currency      string          `json:"currency" gorm:"size:3;not null"`
	Status        string          `json:"status" gorm:"size:20;index"`
	Total         decimal.Decimal `json:"total" gorm:"type:numeric(12,2)"`
	TotalTax      decimal.Decimal `json:"total_tax" gorm:"type:numeric(12,2)"`
	ShippingTotal decimal.Decimal `json:"shipping_total" gorm:"type:numeric(12,2)"`
	ShippingTax   decimal.Decimal `json:"shipping_tax" gorm:"type:numeric(12,2)"`

	OrderedAt time.Time        `json:"ordered_at" gorm:"index"`
	Items     []StoreOrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// IsGuest reports whether the order was placed without a customer account.
func (o *StoreOrder) IsGuest() bool {
	return o.CustomerID == nil
}

// CustomerName is the billing name on the order.
func (o *StoreOrder) CustomerName() string {
	if o.FirstName == "" && o.LastName == "" {
		return o.Email
	}
	return o.FirstName + " " + o.LastName
}

// StoreOrderItem is one order line.
type StoreOrderItem struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	OrderID   int64           `json:"order_id" gorm:"not null;index"`
	ProductID *int64          `json:"product_id,omitempty"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	SKU       string          `json:"sku,omitempty" gorm:"size:100"`
	Quantity  int             `json:"quantity" gorm:"not null;default:1"`
	// Unit price excluding tax.
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2)"`
	VATRate   float64         `json:"vat_rate" gorm:"default:0"`
}
