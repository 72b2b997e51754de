package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agriconnect/internal/testutil"
)

func TestDatetimeParser_Parse(t *testing.T) {
	ref := time.Date(2025, 6, 10, 10, 30, 0, 0, time.UTC)
	p := DatetimeParser{Now: testutil.FixedClock(ref)}

	tests := []struct {
		in   string
		want time.Time
	}{
		{"tomorrow afternoon", time.Date(2025, 6, 11, 14, 0, 0, 0, time.UTC)},
		{"Tomorrow Morning", time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)},
		{"tomorrow", time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)},
		{"next week evening", time.Date(2025, 6, 17, 19, 0, 0, 0, time.UTC)},
		{"next week", time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC)},
		{"today", ref},
		{"this evening", time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC)},
		{"midnight", time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)},
		{"tomorrow midnight", time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)},
		{"2025-07-01 08:15", time.Date(2025, 7, 1, 8, 15, 0, 0, time.UTC)},
		{"2025-07-01T08:15:00Z", time.Date(2025, 7, 1, 8, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := p.Parse(tt.in)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}
}

func TestDatetimeParser_Unparseable(t *testing.T) {
	p := DatetimeParser{Now: testutil.FixedClock(time.Now())}
	assert.Nil(t, p.Parse(""))
	assert.Nil(t, p.Parse("whenever suits you"))
	assert.Nil(t, Format(nil))
}
