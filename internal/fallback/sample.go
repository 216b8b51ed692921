// Package fallback produces the data shown when the inference service cannot
// answer: a deterministic sample customer base, heuristic churn scores and
// sample transaction analytics.
package fallback

import (
	"fmt"
	"math"

	"github.com/Veraticus/finsight/internal/model"
)

// DefaultSeed keeps sample data identical across runs.
const DefaultSeed = 42

// Random is a small deterministic generator. The same seed always yields the
// same sequence, so sample views are stable between requests.
type Random struct {
	x float64
}

// NewRandom returns a generator for seed.
func NewRandom(seed int64) *Random {
	return &Random{x: math.Sin(float64(seed)) * 10000}
}

// Float64 returns the next value in [0, 1).
func (r *Random) Float64() float64 {
	r.x = math.Sin(r.x) * 10000
	return r.x - math.Floor(r.x)
}

// SampleCustomers generates count customers with realistic RFM
// distributions: exponential recency, uniform frequency, log-normal average
// spend and a beta-like churn probability.
func SampleCustomers(count int, seed int64) []model.Customer {
	if count <= 0 {
		return []model.Customer{}
	}

	rnd := NewRandom(seed)
	customers := make([]model.Customer, 0, count)

	for i := range count {
		days := int(math.Floor(-math.Log(math.Max(rnd.Float64(), 1e-12)) * 15))
		transactions := max(1, int(math.Floor(rnd.Float64()*40+10)))

		spendScale := math.Exp(rnd.Float64()*2 + 4)
		avgAmount := spendScale * (0.5 + rnd.Float64())

		totalAmount := (rnd.Float64()-0.5)*4000 - 1000

		churnBase := math.Pow(rnd.Float64(), 2)
		churn := churnBase * math.Pow(1-rnd.Float64(), 5) * 5

		customers = append(customers, model.Customer{
			CustomerID:               fmt.Sprintf("CUST_%06d", i+1),
			DaysSinceLastTransaction: days,
			TotalTransactions:        transactions,
			AvgTransactionAmount:     roundCents(avgAmount),
			TotalAmount:              roundCents(totalAmount),
			ChurnProbability:         math.Min(1, math.Max(0, churn)),
			Segment:                  sampleSegment(rnd.Float64()),
			RiskLevel:                sampleRisk(rnd.Float64()),
		})
	}

	return customers
}

func sampleSegment(r float64) model.Segment {
	switch {
	case r < 0.3:
		return model.SegmentHighValue
	case r < 0.55:
		return model.SegmentGrowthPotential
	case r < 0.8:
		return model.SegmentAtRisk
	default:
		return model.SegmentNewCustomer
	}
}

func sampleRisk(r float64) model.RiskLevel {
	switch {
	case r < 0.6:
		return model.RiskLow
	case r < 0.9:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// roundCents rounds half up to two decimals.
func roundCents(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
