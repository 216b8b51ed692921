package fallback

import (
	"maps"
	"math"
	"strconv"
	"time"

	"github.com/Veraticus/finsight/internal/model"
)

type sampleCategory struct {
	name   string
	amount float64
	count  int
}

var sampleCategories = []sampleCategory{
	{"Grocery", 1250000, 45000},
	{"Gas & Fuel", 890000, 28000},
	{"Restaurants", 750000, 35000},
	{"Shopping", 1120000, 22000},
	{"Entertainment", 420000, 15000},
	{"Healthcare", 680000, 12000},
	{"Travel", 950000, 8000},
	{"Utilities", 380000, 18000},
}

var sampleMerchants = map[string]int{
	"Amazon":    15400,
	"Walmart":   12800,
	"Starbucks": 8900,
	"Shell":     7600,
	"Target":    6800,
}

var samplePaymentMethods = map[string]int{
	"Credit Card":   61200,
	"Debit Card":    48700,
	"UPI":           21400,
	"Bank Transfer": 11300,
	"Cash":          5290,
}

// SampleTransactionAnalytics builds a plausible analytics payload covering
// the days before now. Weekdays are busier than weekends and business hours
// busier than the night.
func SampleTransactionAnalytics(days int, now time.Time, seed int64) *model.TransactionAnalytics {
	if days < 1 {
		days = 30
	}
	rnd := NewRandom(seed)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	out := &model.TransactionAnalytics{
		Period: model.AnalyticsPeriod{
			StartDate: today.AddDate(0, 0, -(days - 1)).Format(time.DateOnly),
			EndDate:   today.Format(time.DateOnly),
			Days:      days,
		},
		TopMerchants:   maps.Clone(sampleMerchants),
		PaymentMethods: maps.Clone(samplePaymentMethods),
		TimePatterns: model.TimePatterns{
			Hourly: make(map[string]int, 24),
			Weekly: make(map[string]int, 7),
		},
	}

	var totalCount, fraudCount int
	var totalAmount float64
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		baseCount, baseAmount := 6000, 220000.0
		if weekend {
			baseCount, baseAmount = 4000, 180000.0
		}

		amount := roundCents(baseAmount + (rnd.Float64()-0.5)*40000)
		count := baseCount + int(math.Floor((rnd.Float64()-0.5)*1000))
		fraud := int(math.Floor(rnd.Float64() * 20))

		out.DailyTrends = append(out.DailyTrends, model.DailyTrend{
			Date:             date.Format(time.DateOnly),
			TransactionCount: count,
			TotalAmount:      amount,
			AvgAmount:        roundCents(amount / float64(count)),
			FraudCount:       fraud,
		})
		out.TimePatterns.Weekly[date.Weekday().String()] += count

		totalCount += count
		totalAmount += amount
		fraudCount += fraud
	}

	for hour := range 24 {
		out.TimePatterns.Hourly[strconv.Itoa(hour)] = hourlyBase(hour) + int(math.Floor(rnd.Float64()*200))
	}

	for _, c := range sampleCategories {
		out.CategoryBreakdown = append(out.CategoryBreakdown, model.CategoryBreakdown{
			Category:         c.name,
			TransactionCount: c.count,
			TotalAmount:      c.amount,
			AvgAmount:        roundCents(c.amount / float64(c.count)),
		})
	}

	out.Summary = model.TransactionSummaryStats{
		TotalTransactions: totalCount,
		TotalVolume:       roundCents(totalAmount),
		FraudTransactions: fraudCount,
		UniqueCustomers:   8943,
		UniqueMerchants:   len(sampleMerchants),
	}
	if totalCount > 0 {
		out.Summary.AvgTransactionAmount = roundCents(totalAmount / float64(totalCount))
		out.Summary.FraudRate = float64(fraudCount) / float64(totalCount)
	}

	return out
}

func hourlyBase(hour int) int {
	switch {
	case hour >= 9 && hour <= 17:
		return 800
	case hour >= 18 && hour <= 21:
		return 600
	case hour >= 6 && hour <= 8:
		return 400
	default:
		return 100
	}
}
