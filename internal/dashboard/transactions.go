package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/content"
	"github.com/Veraticus/finsight/internal/fallback"
	"github.com/Veraticus/finsight/internal/model"
)

// MaxAnalyticsDays bounds the transaction analytics window.
const MaxAnalyticsDays = 365

// TransactionAnalyticsView is the transaction analytics page.
type TransactionAnalyticsView struct {
	Analytics *model.TransactionAnalytics `json:"analytics"`
	Provenance
}

func (b *Builder) analyticsDays(days int) (int, error) {
	if days == 0 {
		days = b.cfg.AnalyticsDays
	}
	if days < 1 || days > MaxAnalyticsDays {
		return 0, common.NewUserError(
			fmt.Sprintf("days must be between 1 and %d", MaxAnalyticsDays),
			fmt.Errorf("%w: days=%d", common.ErrBadRequest, days),
		)
	}
	return days, nil
}

// TransactionAnalytics loads transaction analytics for the last days days;
// zero selects the configured default.
func (b *Builder) TransactionAnalytics(ctx context.Context, days int) (*TransactionAnalyticsView, error) {
	days, err := b.analyticsDays(days)
	if err != nil {
		return nil, err
	}

	analytics, prov := resolve(ctx, b, fmt.Sprintf("transaction-analytics:%d", days),
		func(ctx context.Context) (*model.TransactionAnalytics, error) {
			return b.api.TransactionAnalytics(ctx, days)
		},
		func() *model.TransactionAnalytics {
			return fallback.SampleTransactionAnalytics(days, b.now(), b.cfg.SampleSeed)
		},
	)
	return &TransactionAnalyticsView{Analytics: analytics, Provenance: prov}, nil
}

// FraudDay is fraud activity on one day.
type FraudDay struct {
	Date         string  `json:"date"`
	Transactions int     `json:"transactions"`
	Fraud        int     `json:"fraud"`
	Rate         float64 `json:"rate"`
}

// FraudActivity is the observed part of the fraud view.
type FraudActivity struct {
	Daily             []FraudDay                `json:"daily"`
	Categories        []model.CategoryBreakdown `json:"categories"`
	Days              int                       `json:"days"`
	Transactions      int                       `json:"transactions"`
	FraudTransactions int                       `json:"fraud_transactions"`
	HighRiskAlerts    int                       `json:"high_risk_alerts"`
	FraudRate         float64                   `json:"fraud_rate"`
	Volume            float64                   `json:"volume"`
}

// FraudView is the fraud detection page: observed activity plus the
// detector and alert reference data.
type FraudView struct {
	Reference content.FraudMonitoring `json:"reference"`
	Provenance
	Activity FraudActivity `json:"activity"`
}

// Fraud derives fraud activity from transaction analytics over days days.
func (b *Builder) Fraud(ctx context.Context, days int) (*FraudView, error) {
	days, err := b.analyticsDays(days)
	if err != nil {
		return nil, err
	}

	activity, prov := resolve(ctx, b, fmt.Sprintf("fraud:%d", days),
		func(ctx context.Context) (FraudActivity, error) {
			analytics, err := b.api.TransactionAnalytics(ctx, days)
			if err != nil {
				return FraudActivity{}, err
			}
			activity := FraudFromAnalytics(analytics)
			if metrics, err := b.api.Metrics(ctx); err == nil {
				activity.HighRiskAlerts = metrics.Metrics.HighRiskAlerts
			}
			return activity, nil
		},
		func() FraudActivity {
			return FraudFromAnalytics(fallback.SampleTransactionAnalytics(days, b.now(), b.cfg.SampleSeed))
		},
	)

	return &FraudView{Reference: b.library.Fraud, Provenance: prov, Activity: activity}, nil
}

// FraudFromAnalytics extracts fraud activity from transaction analytics.
// Categories are ordered by fraud count, highest first.
func FraudFromAnalytics(a *model.TransactionAnalytics) FraudActivity {
	activity := FraudActivity{
		Days:              a.Period.Days,
		Transactions:      a.Summary.TotalTransactions,
		FraudTransactions: a.Summary.FraudTransactions,
		FraudRate:         a.Summary.FraudRate,
		Volume:            a.Summary.TotalVolume,
		Daily:             make([]FraudDay, 0, len(a.DailyTrends)),
		Categories:        slices.Clone(a.CategoryBreakdown),
	}
	if activity.Categories == nil {
		activity.Categories = []model.CategoryBreakdown{}
	}

	for _, d := range a.DailyTrends {
		day := FraudDay{Date: d.Date, Transactions: d.TransactionCount, Fraud: d.FraudCount}
		if d.TransactionCount > 0 {
			day.Rate = float64(d.FraudCount) / float64(d.TransactionCount)
		}
		activity.Daily = append(activity.Daily, day)
	}

	slices.SortStableFunc(activity.Categories, func(x, y model.CategoryBreakdown) int {
		return cmp.Compare(y.FraudCount, x.FraudCount)
	})

	return activity
}
