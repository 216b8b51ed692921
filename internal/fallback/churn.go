package fallback

import (
	"math"

	"github.com/Veraticus/finsight/internal/model"
)

// FallbackConfidence is reported for every locally derived prediction.
const FallbackConfidence = 0.75

// Feature names used in fallback importance maps.
const (
	FeatureRecency   = "Days Since Last Transaction"
	FeatureFrequency = "Transaction Frequency"
	FeatureAverage   = "Average Amount"
	FeatureTotal     = "Total Amount"
)

// HeuristicChurn scores a request with fixed rules when the service cannot.
// The probability starts at 0.1, grows with each warning sign and is capped
// at 0.95.
func HeuristicChurn(req model.ChurnPredictionRequest) model.ChurnPrediction {
	p := 0.1
	if req.DaysSinceLastTransaction > 60 {
		p += 0.3
	}
	if req.TotalTransactions < 5 {
		p += 0.25
	}
	if req.AvgTransactionAmount < 50 {
		p += 0.2
	}
	if req.TotalAmount < -2000 {
		p += 0.25
	}
	p = math.Min(0.95, p)

	return newPrediction(req, p)
}

// ProfileChurn reuses the probability already stored on a customer record.
func ProfileChurn(c model.Customer) model.ChurnPrediction {
	return newPrediction(c.ChurnRequest(), c.ChurnProbability)
}

func newPrediction(req model.ChurnPredictionRequest, p float64) model.ChurnPrediction {
	return model.ChurnPrediction{
		CustomerID:         req.CustomerID,
		ChurnProbability:   p,
		ChurnPrediction:    p >= 0.5,
		RiskCategory:       model.ChurnRiskLevel(p),
		Confidence:         FallbackConfidence,
		FeaturesImportance: FeatureImportance(req),
	}
}

// FeatureImportance weights each input by how far it sits in its warning band.
func FeatureImportance(req model.ChurnPredictionRequest) map[string]float64 {
	return map[string]float64{
		FeatureRecency:   pick(req.DaysSinceLastTransaction > 30, 0.35, 0.15),
		FeatureFrequency: pick(req.TotalTransactions < 10, 0.25, 0.1),
		FeatureAverage:   pick(req.AvgTransactionAmount < 100, 0.2, 0.05),
		FeatureTotal:     pick(req.TotalAmount < -1000, 0.2, 0.1),
	}
}

func pick(cond bool, yes, no float64) float64 {
	if cond {
		return yes
	}
	return no
}
