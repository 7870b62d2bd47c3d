package service_test

import (
	"testing"

	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPayloadValidate(t *testing.T) {
	adjustment := service.RequestPayload{Adjustment: &service.AdjustmentPayload{Delta: decimal.RequireFromString("-1")}}
	waste := service.RequestPayload{Waste: &service.WastePayload{Quantity: decimal.RequireFromString("1")}}
	both := service.RequestPayload{Adjustment: adjustment.Adjustment, Waste: waste.Waste}

	assert.NoError(t, adjustment.Validate(model.RequestTypeInventoryAdjustment))
	assert.NoError(t, waste.Validate(model.RequestTypeWasteWriteOff))

	assert.Error(t, adjustment.Validate(model.RequestTypeWasteWriteOff))
	assert.Error(t, waste.Validate(model.RequestTypeInventoryAdjustment))
	assert.Error(t, both.Validate(model.RequestTypeInventoryAdjustment))
	assert.Error(t, service.RequestPayload{}.Validate(model.RequestTypeInventoryAdjustment))
	assert.Error(t, adjustment.Validate(model.RequestType("BOGUS")))
}

func TestPayloadRoundTrip(t *testing.T) {
	original := service.RequestPayload{Waste: &service.WastePayload{
		ItemID:   "abc",
		ItemName: "Tomatoes",
		Unit:     "kg",
		Quantity: decimal.RequireFromString("2.5"),
		Cost:     decimal.RequireFromString("5.25"),
		Category: model.WasteCategorySpoilage,
		Note:     "dropped crate",
	}}

	raw, err := service.EncodePayload(original)
	require.NoError(t, err)

	decoded, err := service.DecodePayload(raw)
	require.NoError(t, err)
	require.NotNil(t, decoded.Waste)
	assert.Nil(t, decoded.Adjustment)
	assert.True(t, decoded.Waste.Quantity.Equal(original.Waste.Quantity))
	assert.Equal(t, original.Waste.Note, decoded.Waste.Note)
}

func TestDecodePayloadMalformed(t *testing.T) {
	_, err := service.DecodePayload("{not json")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}
