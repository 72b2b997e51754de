package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPolicy_StaysInEnumeratedSets(t *testing.T) {
	p := NewRandomPolicy(42)
	for range 50 {
		status, medium := p.Choose()
		assert.Contains(t, PaymentStatuses, status)
		assert.Contains(t, PaymentMediums, medium)
	}
}

func TestRandomPolicy_SeedIsReproducible(t *testing.T) {
	a, b := NewRandomPolicy(7), NewRandomPolicy(7)
	for range 10 {
		sa, ma := a.Choose()
		sb, mb := b.Choose()
		assert.Equal(t, sa, sb)
		assert.Equal(t, ma, mb)
	}
}

func TestNewPaymentPolicy(t *testing.T) {
	p, err := NewPaymentPolicy("", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPaymentPolicy, p)

	p, err = NewPaymentPolicy("fixed", PaymentHold, "cash", 0)
	require.NoError(t, err)
	status, medium := p.Choose()
	assert.Equal(t, PaymentHold, status)
	assert.Equal(t, "cash", medium)

	p, err = NewPaymentPolicy("random", "", "", 1)
	require.NoError(t, err)
	assert.IsType(t, &RandomPolicy{}, p)

	_, err = NewPaymentPolicy("fixed", "PAID", "", 0)
	assert.Error(t, err)
	_, err = NewPaymentPolicy("fixed", "", "cheque", 0)
	assert.Error(t, err)
	_, err = NewPaymentPolicy("roulette", "", "", 0)
	assert.Error(t, err)
}
