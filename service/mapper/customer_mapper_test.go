package mapper

import (
	"testing"
	"time"

	"pennylane-sync-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCustomer() *models.StoreCustomer {
	return &models.StoreCustomer{
		ID:              42,
		FirstName:       "Jean",
		LastName:        "Dupont",
		Email:           "jean.dupont@example.com",
		Phone:           "+33 1 23 45 67 89",
		BillingAddress1: "12 rue de la Paix",
		BillingAddress2: "Bat. B",
		BillingPostcode: "75002",
		BillingCity:     "Paris",
		BillingCountry:  "FR",
	}
}

func TestMapCustomer(t *testing.T) {
	m := NewMapper(Settings{})
	payload := m.MapCustomer(testCustomer())

	assert.Equal(t, "Jean", payload.FirstName)
	assert.Equal(t, "Dupont", payload.LastName)
	assert.Equal(t, "WC-42", payload.ExternalReference)
	assert.Equal(t, "+33 1 23 45 67 89", payload.Phone)
	assert.Equal(t, []string{"jean.dupont@example.com"}, payload.Emails)
	assert.Equal(t, "12 rue de la Paix\nBat. B", payload.BillingAddress.Address)
	assert.Equal(t, "75002", payload.BillingAddress.PostalCode)
	assert.Equal(t, "Paris", payload.BillingAddress.City)
	assert.Equal(t, "FR", payload.BillingAddress.CountryAlpha2)
	assert.Nil(t, payload.DeliveryAddress)
}

func TestMapCustomerIsDeterministic(t *testing.T) {
	m := NewMapper(Settings{})
	customer := testCustomer()

	first := m.MapCustomer(customer)
	second := m.MapCustomer(customer)
	assert.Equal(t, first, second)
}

func TestMapCustomerDeliveryAddress(t *testing.T) {
	m := NewMapper(Settings{})

	t.Run("differing address emits delivery block", func(t *testing.T) {
		customer := testCustomer()
		customer.ShippingAddress1 = "1 avenue des Champs"
		customer.ShippingPostcode = "69001"
		customer.ShippingCity = "Lyon"
		customer.ShippingCountry = "FR"

		payload := m.MapCustomer(customer)
		require.NotNil(t, payload.DeliveryAddress)
		assert.Equal(t, "1 avenue des Champs", payload.DeliveryAddress.Address)
		assert.Equal(t, "Lyon", payload.DeliveryAddress.City)
	})

	t.Run("identical address is omitted", func(t *testing.T) {
		customer := testCustomer()
		customer.ShippingAddress1 = customer.BillingAddress1
		customer.ShippingAddress2 = customer.BillingAddress2
		customer.ShippingPostcode = customer.BillingPostcode
		customer.ShippingCity = customer.BillingCity
		customer.ShippingCountry = customer.BillingCountry

		payload := m.MapCustomer(customer)
		assert.Nil(t, payload.DeliveryAddress)
	})

	t.Run("differing postcode alone is not enough", func(t *testing.T) {
		customer := testCustomer()
		customer.ShippingAddress1 = customer.BillingAddress1
		customer.ShippingAddress2 = customer.BillingAddress2
		customer.ShippingPostcode = "75003"
		customer.ShippingCity = customer.BillingCity

		payload := m.MapCustomer(customer)
		assert.Nil(t, payload.DeliveryAddress)
	})
}

func TestMapCustomerEmailCollection(t *testing.T) {
	m := NewMapper(Settings{})

	customer := testCustomer()
	customer.Email = "Jean.Dupont@Example.com"
	customer.ExtraEmails = []string{"jean.dupont@example.com", "billing@example.com", "", "  "}

	payload := m.MapCustomer(customer)
	assert.Equal(t, []string{"jean.dupont@example.com", "billing@example.com"}, payload.Emails)
}

func TestMapCustomerCountryFallback(t *testing.T) {
	m := NewMapper(Settings{Country: "BE"})

	customer := testCustomer()
	customer.BillingCountry = ""

	payload := m.MapCustomer(customer)
	assert.Equal(t, "BE", payload.BillingAddress.CountryAlpha2)
}

func TestMapGuestCustomer(t *testing.T) {
	m := NewMapper(Settings{})

	order := &models.StoreOrder{
		ID:              7,
		Number:          "ORD-0007",
		Email:           "Guest@Example.com",
		FirstName:       "Marie",
		LastName:        "Curie",
		BillingAddress1: "5 rue Cuvier",
		BillingPostcode: "75005",
		BillingCity:     "Paris",
		BillingCountry:  "FR",
		OrderedAt:       time.Now(),
	}

	payload := m.MapGuestCustomer(order)
	assert.Equal(t, "Marie", payload.FirstName)
	assert.Equal(t, "Curie", payload.LastName)
	assert.Equal(t, "WC-GUEST-guest@example.com", payload.ExternalReference)
	assert.Equal(t, []string{"guest@example.com"}, payload.Emails)
	assert.Equal(t, "5 rue Cuvier", payload.BillingAddress.Address)
	assert.Nil(t, payload.DeliveryAddress)
}
