package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeliveryZones(t *testing.T) {
	zones := ParseDeliveryZones(" Lima : Lima ,Lima:Callao,broken,:Miraflores,Arequipa:")

	require.Len(t, zones, 2)
	assert.Equal(t, DeliveryZone{Region: "Lima", SubRegion: "Lima"}, zones[0])
	assert.Equal(t, DeliveryZone{Region: "Lima", SubRegion: "Callao"}, zones[1])
}

func TestCheckoutConfig_IsDeliverable(t *testing.T) {
	cfg := CheckoutConfig{DeliveryZones: ParseDeliveryZones("Lima:Lima,Lima:Callao")}

	assert.True(t, cfg.IsDeliverable("lima", " LIMA "))
	assert.True(t, cfg.IsDeliverable("Lima", "Callao"))
	assert.False(t, cfg.IsDeliverable("Lima", "Huaral"))
	assert.False(t, cfg.IsDeliverable("Cusco", "Cusco"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("ORDER_CODE_PREFIX", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "PED", cfg.Checkout.OrderCodePrefix)
	assert.Equal(t, "https://api.mercadopago.com", cfg.MercadoPago.BaseURL)
	assert.NotEmpty(t, cfg.Checkout.DeliveryZones)
}

func TestValidate_RejectsShortSecretAndPrefix(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	bad := *cfg
	bad.JWT.Secret = "short"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Checkout.OrderCodePrefix = "ORDER"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.App.Environment = "production"
	bad.MercadoPago.AccessToken = ""
	assert.Error(t, bad.Validate())
}
