package trade

import (
	"github.com/hupe1980/agriconnect/extract"
)

// Logistics status values.
const (
	LogisticsPendingSetup = "PENDING_SETUP"
	LogisticsPendingLAD   = "PENDING_SETUP_LAD"
	LogisticsDelivered    = "DELIVERED"
)

// Confirmation tags stored next to each logistics field.
const (
	Confirmed    = "confirmed"
	NotConfirmed = "not_confirmed"
)

// LogisticsFields are the optional logistics inputs of a trade.
type LogisticsFields struct {
	PickupAddress      *string
	PickupDatetimeNL   *string
	DeliveryAddress    *string
	DeliveryDatetimeNL *string
	ResponsibleParty   *string
}

// LogisticsFromDetails selects the logistics inputs of d.
func LogisticsFromDetails(d extract.TradeDetails) LogisticsFields {
	return LogisticsFields{
		PickupAddress:      d.PickupAddress,
		PickupDatetimeNL:   d.PickupDatetimeNL,
		DeliveryAddress:    d.DeliveryAddress,
		DeliveryDatetimeNL: d.DeliveryDatetimeNL,
		ResponsibleParty:   d.ResponsibleParty,
	}
}

// Payload builds the logistics update. Datetimes that fail to parse are
// stored as null. A pickup or delivery is confirmed only when both its
// address and its parsed time are known.
func (l LogisticsFields) Payload(parser DatetimeParser) map[string]any {
	var pickupAt, deliveryAt any
	if l.PickupDatetimeNL != nil {
		pickupAt = Format(parser.Parse(*l.PickupDatetimeNL))
	}
	if l.DeliveryDatetimeNL != nil {
		deliveryAt = Format(parser.Parse(*l.DeliveryDatetimeNL))
	}

	return map[string]any{
		"pickup_address":           optional(l.PickupAddress),
		"delivery_address":         optional(l.DeliveryAddress),
		"responsible_party":        optional(l.ResponsibleParty),
		"pickup_datetime":          pickupAt,
		"delivery_datetime":        deliveryAt,
		"logistics_status":         LogisticsPendingLAD,
		"pickup_status":            confirmation(l.PickupAddress != nil && pickupAt != nil),
		"delivery_status":          confirmation(l.DeliveryAddress != nil && deliveryAt != nil),
		"responsible_party_status": confirmation(l.ResponsibleParty != nil),
	}
}

func optional(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func confirmation(ok bool) string {
	if ok {
		return Confirmed
	}
	return NotConfirmed
}
