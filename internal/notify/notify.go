package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"autobid/internal/models"
)

// EventType names a real-time auction event
type EventType string

const (
	EventNewBid      EventType = "new-bid"
	EventPriceUpdate EventType = "price-update"
)

// Sink delivers auction events to subscribers of a vehicle.
// Delivery is best effort; callers log failures and carry on.
type Sink interface {
	Publish(ctx context.Context, vehicleID string, event EventType, payload any) error
}

// NewBidPayload is the data of a new-bid event
type NewBidPayload struct {
	Bid models.Bid `json:"bid"`
}

// PriceUpdatePayload is the data of a price-update event
type PriceUpdatePayload struct {
	VehicleID    string `json:"vehicleId"`
	CurrentPrice int64  `json:"currentPrice"`
}

// Envelope is the wire form of an event, shared by every transport
type Envelope struct {
	Event     EventType       `json:"event"`
	VehicleID string          `json:"vehicleId"`
	Data      json.RawMessage `json:"data"`
}

// Encode marshals payload into an envelope for vehicleID
func Encode(vehicleID string, event EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notify: encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, VehicleID: vehicleID, Data: data})
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, string, EventType, any) error { return nil }

// Multi publishes to every sink and joins their errors
type Multi []Sink

func (m Multi) Publish(ctx context.Context, vehicleID string, event EventType, payload any) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, vehicleID, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RoomName is the subscription group for a vehicle's events
func RoomName(vehicleID string) string {
	return "vehicle-" + vehicleID
}
