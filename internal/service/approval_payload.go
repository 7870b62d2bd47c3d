package service

import (
	"encoding/json"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

// AdjustmentPayload is the snapshot persisted for INVENTORY_ADJUSTMENT
// requests. The engine never acts on it; it exists for display and audit.
type AdjustmentPayload struct {
	ItemID         string          `json:"item_id"`
	ItemName       string          `json:"item_name"`
	Unit           string          `json:"unit"`
	Delta          decimal.Decimal `json:"delta"`
	Reason         string          `json:"reason"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
}

// WastePayload is the snapshot persisted for WASTE_WRITE_OFF requests.
type WastePayload struct {
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
	Category string          `json:"category"`
	Note     string          `json:"note,omitempty"`
}

// RequestPayload is a tagged union keyed by the request type: exactly one
// variant must be set, and it must match the type it is attached to.
type RequestPayload struct {
	Adjustment *AdjustmentPayload `json:"adjustment,omitempty"`
	Waste      *WastePayload      `json:"waste,omitempty"`
}

// Validate checks that the populated variant matches the request type.
func (p RequestPayload) Validate(t model.RequestType) error {
	switch t {
	case model.RequestTypeInventoryAdjustment:
		if p.Adjustment == nil || p.Waste != nil {
			return apperror.New(apperror.KindValidation, "request payload must carry exactly the adjustment variant for %s", t)
		}
	case model.RequestTypeWasteWriteOff:
		if p.Waste == nil || p.Adjustment != nil {
			return apperror.New(apperror.KindValidation, "request payload must carry exactly the waste variant for %s", t)
		}
	default:
		return apperror.New(apperror.KindValidation, "unknown request type: %s", t)
	}
	return nil
}

// EncodePayload serializes the payload for persistence.
func EncodePayload(p RequestPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", apperror.Wrap(apperror.KindValidation, err, "request payload is not serializable")
	}
	return string(raw), nil
}

// DecodePayload deserializes a persisted snapshot back into the union.
func DecodePayload(raw string) (*RequestPayload, error) {
	var p RequestPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, err, "stored request payload is malformed")
	}
	return &p, nil
}
