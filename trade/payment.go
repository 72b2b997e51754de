package trade

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
)

// DefaultTerms is stored when no payment terms were given.
const DefaultTerms = "DEFAULT_TERMS"

// PaymentPendingSetup is the payment status of a newly created trade.
const PaymentPendingSetup = "PENDING_SETUP"

// PaymentPaid marks a settled trade.
const PaymentPaid = "PAID"

// Payment statuses assigned by the payment stage.
const (
	PaymentProcessing = "processing"
	PaymentCancelled  = "cancelled"
	PaymentHold       = "hold"
)

// PaymentStatuses is the set the payment stage chooses from.
var PaymentStatuses = []string{PaymentProcessing, PaymentCancelled, PaymentHold}

// PaymentMediums is the set of payment mediums.
var PaymentMediums = []string{"UPI", "cash", "UPI or cash"}

// PaymentPolicy decides the status and medium of a new trade's payment.
type PaymentPolicy interface {
	Choose() (status, medium string)
}

// FixedPolicy always answers the same status and medium.
type FixedPolicy struct {
	Status string
	Medium string
}

// DefaultPaymentPolicy is used when no policy is configured.
var DefaultPaymentPolicy = FixedPolicy{Status: PaymentProcessing, Medium: "UPI or cash"}

// Choose implements PaymentPolicy.
func (p FixedPolicy) Choose() (string, string) {
	return p.Status, p.Medium
}

// RandomPolicy picks uniformly from PaymentStatuses and PaymentMediums
// using a seeded source, so runs with the same seed are reproducible.
type RandomPolicy struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomPolicy creates a RandomPolicy.
func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Choose implements PaymentPolicy.
func (p *RandomPolicy) Choose() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PaymentStatuses[p.rnd.IntN(len(PaymentStatuses))], PaymentMediums[p.rnd.IntN(len(PaymentMediums))]
}

// NewPaymentPolicy builds a policy by name: "fixed" (or "") with the given
// status and medium, or "random" seeded with seed.
func NewPaymentPolicy(name, status, medium string, seed uint64) (PaymentPolicy, error) {
	switch name {
	case "", "fixed":
		p := DefaultPaymentPolicy
		if status != "" {
			if !slices.Contains(PaymentStatuses, status) {
				return nil, fmt.Errorf("unsupported payment status %q", status)
			}
			p.Status = status
		}
		if medium != "" {
			if !slices.Contains(PaymentMediums, medium) {
				return nil, fmt.Errorf("unsupported payment medium %q", medium)
			}
			p.Medium = medium
		}
		return p, nil
	case "random":
		return NewRandomPolicy(seed), nil
	}
	return nil, fmt.Errorf("unknown payment policy %q", name)
}
