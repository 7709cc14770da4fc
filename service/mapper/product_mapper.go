/*
 * @module service/mapper/product_mapper
 * @description Maps storefront products to the product payload
 * @architecture adapter - pure transformation layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow product snapshot -> payload with formatted VAT rate and type
 * @rules virtual or downloadable products map to SERVICE, everything else to GOODS
 * @dependencies service/models
 * @refs service/syncer/product_syncer.go
 */

package mapper

import "pennylane-sync-service/service/models"

const defaultUnit = "piece"

// MapProduct builds the product payload for a storefront product.
func (m *Mapper) MapProduct(p *models.StoreProduct) *ProductPayload {
	productType := ProductTypeGoods
	if p.IsService() {
		productType = ProductTypeService
	}

	reference := p.SKU
	if reference == "" {
		reference = FallbackSKU(p.ID)
	}

	unit := p.Unit
	if unit == "" {
		unit = defaultUnit
	}

	return &ProductPayload{
		Label:             p.Name,
		Description:       p.Description,
		ExternalReference: ProductExternalReference(p.ID),
		PriceBeforeTax:    p.Price.InexactFloat64(),
		VATRate:           FormatVATRate(p.VATRate, m.settings.Country),
		Unit:              unit,
		Currency:          m.settings.Currency,
		Reference:         reference,
		ProductType:       productType,
		LedgerAccountID:   m.settings.LedgerAccountID,
	}
}
