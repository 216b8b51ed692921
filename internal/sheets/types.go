package sheets

import (
	"cmp"
	"slices"
	"time"

	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/service"
	"github.com/shopspring/decimal"
)

// Tab titles of the exported spreadsheet.
const (
	TabSummary   = "Summary"
	TabCustomers = "Customers"
	TabBands     = "Risk Bands"
	TabSegments  = "Segments"
)

// Tabs lists every tab in display order.
var Tabs = []string{TabSummary, TabCustomers, TabBands, TabSegments}

// CustomerRow is a single row in the Customers tab.
type CustomerRow struct {
	CustomerID       string
	Name             string
	Segment          string
	Location         string
	RiskCategory     string
	TotalAmount      decimal.Decimal
	ChurnProbability decimal.Decimal
	Confidence       decimal.Decimal
	Predicted        bool
	Scored           bool
}

// BandRow is a single row in the Risk Bands tab.
type BandRow struct {
	Band      string
	Share     decimal.Decimal
	Customers int
}

// SegmentRow is a single row in the Segments tab.
type SegmentRow struct {
	Segment     string
	AvgChurn    decimal.Decimal
	TotalAmount decimal.Decimal
	Customers   int
	HighRisk    int
}

// TabData holds all the data for the complete spreadsheet export.
type TabData struct {
	GeneratedAt time.Time
	Summary     model.ChurnBatchSummary
	Customers   []CustomerRow
	Bands       []BandRow
	Segments    []SegmentRow
}

// BuildTabData lays out a churn report as spreadsheet rows. Customers are
// ordered by churn probability, highest first. Customers without a
// prediction keep their stored probability and are marked unscored.
func BuildTabData(report *service.ChurnReport) TabData {
	data := TabData{
		GeneratedAt: report.GeneratedAt,
		Summary:     report.Summary,
		Customers:   make([]CustomerRow, 0, max(len(report.Customers), len(report.Predictions))),
	}

	seen := make(map[string]bool, len(report.Customers))
	for _, c := range report.Customers {
		seen[c.CustomerID] = true
		row := CustomerRow{
			CustomerID:       c.CustomerID,
			Name:             c.Name,
			Segment:          string(c.Segment),
			Location:         c.Location,
			TotalAmount:      decimal.NewFromFloat(c.TotalAmount).Round(2),
			ChurnProbability: decimal.NewFromFloat(c.ChurnProbability).Round(4),
			RiskCategory:     model.ChurnRiskLevel(c.ChurnProbability),
		}
		if p, ok := report.Predictions[c.CustomerID]; ok {
			applyPrediction(&row, p)
		}
		data.Customers = append(data.Customers, row)
	}
	for id, p := range report.Predictions {
		if seen[id] {
			continue
		}
		row := CustomerRow{CustomerID: id}
		applyPrediction(&row, p)
		data.Customers = append(data.Customers, row)
	}

	slices.SortStableFunc(data.Customers, func(a, b CustomerRow) int {
		if c := b.ChurnProbability.Cmp(a.ChurnProbability); c != 0 {
			return c
		}
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})

	data.Bands = bandRows(data.Customers)
	data.Segments = segmentRows(data.Customers)
	return data
}

func applyPrediction(row *CustomerRow, p model.ChurnPrediction) {
	row.ChurnProbability = decimal.NewFromFloat(p.ChurnProbability).Round(4)
	row.Confidence = decimal.NewFromFloat(p.Confidence).Round(4)
	row.RiskCategory = model.ChurnRiskLevel(p.ChurnProbability)
	row.Predicted = p.ChurnPrediction
	row.Scored = true
}

var bandOrder = []string{"High Risk", "Medium Risk", "Low Risk"}

func bandRows(customers []CustomerRow) []BandRow {
	counts := make(map[string]int, len(bandOrder))
	for _, c := range customers {
		counts[c.RiskCategory]++
	}

	rows := make([]BandRow, 0, len(bandOrder))
	total := decimal.NewFromInt(int64(len(customers)))
	for _, band := range bandOrder {
		row := BandRow{Band: band, Customers: counts[band], Share: decimal.Zero}
		if len(customers) > 0 {
			row.Share = decimal.NewFromInt(int64(counts[band])).Div(total).Mul(decimal.NewFromInt(100)).Round(1)
		}
		rows = append(rows, row)
	}
	return rows
}

func segmentRows(customers []CustomerRow) []SegmentRow {
	type acc struct {
		churn  decimal.Decimal
		amount decimal.Decimal
		count  int
		high   int
	}
	groups := make(map[string]*acc)
	for _, c := range customers {
		name := c.Segment
		if name == "" {
			name = "Unknown"
		}
		g, ok := groups[name]
		if !ok {
			g = &acc{}
			groups[name] = g
		}
		g.churn = g.churn.Add(c.ChurnProbability)
		g.amount = g.amount.Add(c.TotalAmount)
		g.count++
		if c.ChurnProbability.InexactFloat64() >= model.HighRiskThreshold {
			g.high++
		}
	}

	rows := make([]SegmentRow, 0, len(groups))
	for name, g := range groups {
		rows = append(rows, SegmentRow{
			Segment:     name,
			Customers:   g.count,
			HighRisk:    g.high,
			AvgChurn:    g.churn.Div(decimal.NewFromInt(int64(g.count))).Round(4),
			TotalAmount: g.amount.Round(2),
		})
	}
	slices.SortFunc(rows, func(a, b SegmentRow) int {
		if c := cmp.Compare(b.Customers, a.Customers); c != 0 {
			return c
		}
		return cmp.Compare(a.Segment, b.Segment)
	})
	return rows
}

// Values renders each tab as a grid of cell values keyed by tab title.
func (d TabData) Values() map[string][][]any {
	summary := [][]any{
		{"Churn Report", d.GeneratedAt.UTC().Format("Jan 2, 2006 15:04 MST")},
		{},
		{"Total Customers", d.Summary.TotalCustomers},
		{"Predicted Churners", d.Summary.PredictedChurners},
		{"High Risk Customers", d.Summary.HighRiskCustomers},
		{"Average Churn Probability", decimal.NewFromFloat(d.Summary.AvgChurnProbability).Round(4).InexactFloat64()},
	}

	customers := make([][]any, 0, len(d.Customers)+1)
	customers = append(customers, []any{
		"Customer ID", "Name", "Segment", "Location", "Total Amount",
		"Churn Probability", "Risk Category", "Confidence", "Predicted Churn", "Scored",
	})
	for _, c := range d.Customers {
		customers = append(customers, []any{
			c.CustomerID,
			c.Name,
			c.Segment,
			c.Location,
			c.TotalAmount.InexactFloat64(),
			c.ChurnProbability.InexactFloat64(),
			c.RiskCategory,
			c.Confidence.InexactFloat64(),
			c.Predicted,
			c.Scored,
		})
	}

	bands := [][]any{{"Band", "Customers", "Share (%)"}}
	for _, b := range d.Bands {
		bands = append(bands, []any{b.Band, b.Customers, b.Share.InexactFloat64()})
	}

	segments := [][]any{{"Segment", "Customers", "High Risk", "Average Churn", "Total Amount"}}
	for _, s := range d.Segments {
		segments = append(segments, []any{
			s.Segment,
			s.Customers,
			s.HighRisk,
			s.AvgChurn.InexactFloat64(),
			s.TotalAmount.InexactFloat64(),
		})
	}

	return map[string][][]any{
		TabSummary:   summary,
		TabCustomers: customers,
		TabBands:     bands,
		TabSegments:  segments,
	}
}
