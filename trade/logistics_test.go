package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agriconnect/extract"
	"github.com/hupe1980/agriconnect/internal/testutil"
)

func TestLogisticsFields_Payload(t *testing.T) {
	parser := DatetimeParser{Now: testutil.FixedClock(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC))}

	t.Run("confirmed pickup", func(t *testing.T) {
		l := LogisticsFromDetails(extract.TradeDetails{
			PickupAddress:    extract.String("Farm gate, Nashik"),
			PickupDatetimeNL: extract.String("tomorrow afternoon"),
			DeliveryAddress:  extract.String("FreshFoods depot"),
		})
		p := l.Payload(parser)
		assert.Equal(t, "2025-06-11T14:00:00Z", p["pickup_datetime"])
		assert.Nil(t, p["delivery_datetime"])
		assert.Equal(t, Confirmed, p["pickup_status"])
		assert.Equal(t, NotConfirmed, p["delivery_status"])
		assert.Equal(t, NotConfirmed, p["responsible_party_status"])
		assert.Equal(t, LogisticsPendingLAD, p["logistics_status"])
		assert.Equal(t, "FreshFoods depot", p["delivery_address"])
	})

	t.Run("unparseable time is null", func(t *testing.T) {
		l := LogisticsFields{
			PickupAddress:    extract.String("Farm gate"),
			PickupDatetimeNL: extract.String("when the rain stops"),
			ResponsibleParty: extract.String("buyer"),
		}
		p := l.Payload(parser)
		assert.Contains(t, p, "pickup_datetime")
		assert.Nil(t, p["pickup_datetime"])
		assert.Equal(t, NotConfirmed, p["pickup_status"])
		assert.Equal(t, Confirmed, p["responsible_party_status"])
	})

	t.Run("all absent", func(t *testing.T) {
		p := LogisticsFields{}.Payload(parser)
		assert.Nil(t, p["pickup_address"])
		assert.Nil(t, p["responsible_party"])
		assert.Equal(t, NotConfirmed, p["pickup_status"])
	})
}
