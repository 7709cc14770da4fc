/*
 * @module service/mapper/invoice_mapper
 * @description Maps storefront orders to the customer-invoice payload
 * @architecture adapter - pure transformation layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow order snapshot -> line items -> synthetic shipping line -> payload
 * @rules due date is the order date plus 30 days; shipping becomes a line item when billed
 * @dependencies service/models, github.com/shopspring/decimal
 * @refs service/syncer/order_syncer.go
 */

package mapper

import (
	"pennylane-sync-service/service/models"

	"github.com/shopspring/decimal"
)

const (
	invoiceDateLayout = "2006-01-02"
	dueDateOffsetDays = 30
)

// MapInvoice builds the customer-invoice payload for a storefront order.
func (m *Mapper) MapInvoice(o *models.StoreOrder) *InvoicePayload {
	payload := &InvoicePayload{
		Customer: InvoiceCustomerPayload{
			Name:    o.CustomerName(),
			Email:   o.Email,
			Address: composeAddress(o.BillingAddress1, o.BillingAddress2),
		},
		JournalCode:       m.settings.JournalCode,
		Date:              o.OrderedAt.Format(invoiceDateLayout),
		DueDate:           o.OrderedAt.AddDate(0, 0, dueDateOffsetDays).Format(invoiceDateLayout),
		InvoiceNumber:     o.Number,
		Currency:          o.Currency,
		TotalAmount:       o.Total.InexactFloat64(),
		TotalTax:          o.TotalTax.InexactFloat64(),
		ExternalReference: OrderExternalReference(o.ID),
		Reference:         o.Number,
	}
	if payload.Currency == "" {
		payload.Currency = m.settings.Currency
	}

	for _, item := range o.Items {
		payload.LineItems = append(payload.LineItems, LineItemPayload{
			Description:         item.Name,
			Quantity:            item.Quantity,
			UnitPriceWithoutVAT: item.UnitPrice.InexactFloat64(),
			VATRate:             FormatVATRate(item.VATRate, m.settings.Country),
			ProductID:           item.ProductID,
			SKU:                 item.SKU,
			AccountNumber:       m.settings.AccountNumber,
		})
	}

	if line := m.shippingLineItem(o); line != nil {
		payload.LineItems = append(payload.LineItems, *line)
	}

	return payload
}

// shippingLineItem synthesizes a line for billed shipping. The VAT rate is
// reconstructed from the shipping amounts since the storefront does not store
// it as a rate.
func (m *Mapper) shippingLineItem(o *models.StoreOrder) *LineItemPayload {
	if !o.ShippingTotal.IsPositive() {
		return nil
	}

	rate := o.ShippingTax.
		Div(o.ShippingTotal).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()

	return &LineItemPayload{
		Description:         "Shipping",
		Quantity:            1,
		UnitPriceWithoutVAT: o.ShippingTotal.InexactFloat64(),
		VATRate:             FormatVATRate(rate, m.settings.Country),
		AccountNumber:       m.settings.AccountNumber,
	}
}
