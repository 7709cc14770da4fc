/*
 * @module service/mapper/customer_mapper
 * @description Maps storefront customers and guest checkouts to the individual-customer payload
 * @architecture adapter - pure transformation layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow customer snapshot -> billing/delivery addresses -> payload
 * @rules delivery address is emitted only when it differs from billing by address line or city
 * @dependencies service/models
 * @refs service/syncer/customer_syncer.go, service/syncer/guest_customer_syncer.go
 */

package mapper

import (
	"strings"

	"pennylane-sync-service/service/models"
)

// MapCustomer builds the individual-customer payload for an account holder.
func (m *Mapper) MapCustomer(c *models.StoreCustomer) *CustomerPayload {
	billing := AddressPayload{
		Address:       composeAddress(c.BillingAddress1, c.BillingAddress2),
		PostalCode:    c.BillingPostcode,
		City:          c.BillingCity,
		CountryAlpha2: countryOrDefault(c.BillingCountry, m.settings.Country),
	}

	payload := &CustomerPayload{
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		BillingAddress:    billing,
		ExternalReference: CustomerExternalReference(c.ID),
	}

	if c.Phone != "" {
		payload.Phone = c.Phone
	}

	emails := collectEmails(c.Email, c.ExtraEmails)
	if len(emails) > 0 {
		payload.Emails = emails
	}

	delivery := AddressPayload{
		Address:       composeAddress(c.ShippingAddress1, c.ShippingAddress2),
		PostalCode:    c.ShippingPostcode,
		City:          c.ShippingCity,
		CountryAlpha2: countryOrDefault(c.ShippingCountry, m.settings.Country),
	}
	if delivery.Address != "" && differsFromBilling(billing, delivery) {
		payload.DeliveryAddress = &delivery
	}

	return payload
}

// MapGuestCustomer synthesizes an individual-customer payload from a guest
// order, since guests have no account record of their own.
func (m *Mapper) MapGuestCustomer(o *models.StoreOrder) *CustomerPayload {
	payload := &CustomerPayload{
		FirstName: o.FirstName,
		LastName:  o.LastName,
		BillingAddress: AddressPayload{
			Address:       composeAddress(o.BillingAddress1, o.BillingAddress2),
			PostalCode:    o.BillingPostcode,
			City:          o.BillingCity,
			CountryAlpha2: countryOrDefault(o.BillingCountry, m.settings.Country),
		},
		ExternalReference: GuestExternalReference(o.Email),
	}

	if o.Email != "" {
		payload.Emails = []string{strings.ToLower(strings.TrimSpace(o.Email))}
	}

	return payload
}

// differsFromBilling compares the delivery address to the billing address by
// composed address line and city.
func differsFromBilling(billing, delivery AddressPayload) bool {
	return !strings.EqualFold(billing.Address, delivery.Address) ||
		!strings.EqualFold(billing.City, delivery.City)
}

func countryOrDefault(country, fallback string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	if len(country) == 2 {
		return country
	}
	return fallback
}

// collectEmails merges the primary email and extra billing emails, normalized
// and de-duplicated, preserving order.
func collectEmails(primary string, extra []string) []string {
	seen := make(map[string]bool)
	var emails []string

	add := func(email string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		emails = append(emails, email)
	}

	add(primary)
	for _, email := range extra {
		add(email)
	}
	return emails
}
