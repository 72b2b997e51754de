// Package extract turns a farmer's free-form trade message into structured
// trade details. Explicit details supplied by the caller always win; an
// Extractor only fills the fields left absent.
package extract

import (
	"context"
	"encoding/json"
	"strings"
)

// DefaultFarmerID is used when no farmer id is supplied.
const DefaultFarmerID = "FARMER_123"

// TradeDetails is the fixed schema of fields a trade can be initiated with.
// Absent fields are nil and are stored as null.
type TradeDetails struct {
	FarmerID           *string  `json:"farmer_id,omitempty" description:"Identifier of the selling farmer"`
	ProductName        *string  `json:"product_name,omitempty" description:"Crop or product being sold"`
	Quantity           *float64 `json:"quantity,omitempty" description:"Amount being sold"`
	Unit               *string  `json:"unit,omitempty" description:"Unit of the quantity, e.g. kg or quintal"`
	BuyerName          *string  `json:"buyer_name,omitempty" description:"Name of the buyer"`
	TotalPrice         *float64 `json:"total_price,omitempty" description:"Agreed total price"`
	PickupDatetimeNL   *string  `json:"pickup_datetime_nl,omitempty" description:"Pickup time in natural language, e.g. tomorrow afternoon"`
	PickupAddress      *string  `json:"pickup_address,omitempty" description:"Where the produce is collected"`
	DeliveryAddress    *string  `json:"delivery_address,omitempty" description:"Where the produce is delivered"`
	DeliveryDatetimeNL *string  `json:"delivery_datetime_nl,omitempty" description:"Delivery time in natural language"`
	ResponsibleParty   *string  `json:"responsible_party,omitempty" description:"Who arranges transport"`
	PaymentTermsNL     *string  `json:"payment_terms_nl,omitempty" description:"Payment terms in natural language, e.g. Net 30"`
}

// String returns a pointer to a trimmed s, or nil when s is blank.
func String(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Fill returns d with every nil field taken from other.
func (d TradeDetails) Fill(other TradeDetails) TradeDetails {
	fillString(&d.FarmerID, other.FarmerID)
	fillString(&d.ProductName, other.ProductName)
	fillFloat(&d.Quantity, other.Quantity)
	fillString(&d.Unit, other.Unit)
	fillString(&d.BuyerName, other.BuyerName)
	fillFloat(&d.TotalPrice, other.TotalPrice)
	fillString(&d.PickupDatetimeNL, other.PickupDatetimeNL)
	fillString(&d.PickupAddress, other.PickupAddress)
	fillString(&d.DeliveryAddress, other.DeliveryAddress)
	fillString(&d.DeliveryDatetimeNL, other.DeliveryDatetimeNL)
	fillString(&d.ResponsibleParty, other.ResponsibleParty)
	fillString(&d.PaymentTermsNL, other.PaymentTermsNL)
	return d
}

func fillString(dst **string, src *string) {
	if *dst == nil && src != nil && strings.TrimSpace(*src) != "" {
		v := strings.TrimSpace(*src)
		*dst = &v
	}
}

func fillFloat(dst **float64, src *float64) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

// InitiationFields returns the record fields created by trade initiation.
// Every schema key is present; absent values are nil. farmer_id falls back
// to defaultFarmer.
func (d TradeDetails) InitiationFields(defaultFarmer string) map[string]any {
	if defaultFarmer == "" {
		defaultFarmer = DefaultFarmerID
	}
	farmer := defaultFarmer
	if d.FarmerID != nil {
		farmer = *d.FarmerID
	}
	return map[string]any{
		"farmer_id":          farmer,
		"product_name":       strOrNil(d.ProductName),
		"quantity":           floatOrNil(d.Quantity),
		"unit":               strOrNil(d.Unit),
		"buyer_name":         strOrNil(d.BuyerName),
		"total_price":        floatOrNil(d.TotalPrice),
		"pickup_datetime_nl": strOrNil(d.PickupDatetimeNL),
		"pickup_address":     strOrNil(d.PickupAddress),
		"payment_terms_nl":   strOrNil(d.PaymentTermsNL),
	}
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// Parse decodes details from JSON, accepting numbers given as strings.
func Parse(data []byte) (TradeDetails, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return TradeDetails{}, err
	}
	return FromMap(raw), nil
}

// FromMap reads details from a decoded JSON object. Unknown keys and values
// of the wrong type are ignored.
func FromMap(m map[string]any) TradeDetails {
	return TradeDetails{
		FarmerID:           mapString(m, "farmer_id"),
		ProductName:        mapString(m, "product_name"),
		Quantity:           mapFloat(m, "quantity"),
		Unit:               mapString(m, "unit"),
		BuyerName:          mapString(m, "buyer_name"),
		TotalPrice:         mapFloat(m, "total_price"),
		PickupDatetimeNL:   mapString(m, "pickup_datetime_nl"),
		PickupAddress:      mapString(m, "pickup_address"),
		DeliveryAddress:    mapString(m, "delivery_address"),
		DeliveryDatetimeNL: mapString(m, "delivery_datetime_nl"),
		ResponsibleParty:   mapString(m, "responsible_party"),
		PaymentTermsNL:     mapString(m, "payment_terms_nl"),
	}
}

func mapString(m map[string]any, key string) *string {
	switch v := m[key].(type) {
	case string:
		return String(v)
	case json.Number:
		return String(v.String())
	}
	return nil
}

func mapFloat(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}
	case string:
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &f); err == nil {
			return &f
		}
	}
	return nil
}

// Extractor derives trade details from a message. Implementations must keep
// every non-nil field of explicit.
type Extractor interface {
	Extract(ctx context.Context, message string, explicit TradeDetails) (TradeDetails, error)
}

// Passthrough returns the explicit details unchanged.
type Passthrough struct{}

// Extract implements Extractor.
func (Passthrough) Extract(_ context.Context, _ string, explicit TradeDetails) (TradeDetails, error) {
	return explicit, nil
}
