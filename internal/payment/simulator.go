package payment

import (
	"context"
	"math/rand"
	"strings"

	"github.com/Domenick1991/airfare/internal/domain"
)

const refAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Simulator is a fake payment processor. Larger amounts are slightly more
// likely to be declined. The randomness source is injectable so tests can
// force either outcome.
type Simulator struct {
	baseFailChance float64
	randFloat      func() float64
	randIntN       func(n int) int
}

type Option func(*Simulator)

// WithRand replaces the randomness source used for the decline roll and
// the transaction reference.
func WithRand(randFloat func() float64, randIntN func(n int) int) Option {
	return func(s *Simulator) {
		s.randFloat = randFloat
		s.randIntN = randIntN
	}
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		baseFailChance: 0.02,
		randFloat:      rand.Float64,
		randIntN:       rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Charge attempts to capture amountCents and returns a transaction
// reference on success, or domain.ErrPaymentDeclined.
func (s *Simulator) Charge(_ context.Context, amountCents int64) (string, error) {
	failChance := s.baseFailChance + float64(amountCents)/100.0/100000.0
	if s.randFloat() < failChance {
		return "", domain.ErrPaymentDeclined
	}

	var ref strings.Builder
	for i := 0; i < 12; i++ {
		ref.WriteByte(refAlphabet[s.randIntN(len(refAlphabet))])
	}
	return ref.String(), nil
}
