package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChurnRiskLevel(t *testing.T) {
	tests := []struct {
		name        string
		want        string
		probability float64
	}{
		{name: "zero", probability: 0, want: "Low Risk"},
		{name: "just below medium", probability: 0.399, want: "Low Risk"},
		{name: "medium boundary", probability: 0.4, want: "Medium Risk"},
		{name: "just below high", probability: 0.699, want: "Medium Risk"},
		{name: "high boundary", probability: 0.7, want: "High Risk"},
		{name: "certain", probability: 1, want: "High Risk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChurnRiskLevel(tt.probability))
		})
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		want  time.Time
		name  string
		input string
		zero  bool
	}{
		{
			name:  "naive iso with micros",
			input: `"2024-06-21T14:32:18.123456"`,
			want:  time.Date(2024, 6, 21, 14, 32, 18, 123456000, time.UTC),
		},
		{
			name:  "rfc3339",
			input: `"2024-06-21T14:32:18Z"`,
			want:  time.Date(2024, 6, 21, 14, 32, 18, 0, time.UTC),
		},
		{
			name:  "date only",
			input: `"2024-06-21"`,
			want:  time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
		},
		{name: "null", input: `null`, zero: true},
		{name: "empty", input: `""`, zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			if tt.zero {
				assert.True(t, ts.IsZero())
				return
			}
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
		assert.Error(t, json.Unmarshal([]byte(`42`), &ts))
	})
}

func TestTimestampMarshal(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-02T03:04:05Z"`, string(data))
}

func TestCustomerChurnRequest(t *testing.T) {
	c := Customer{
		CustomerID:               "CUST_000001",
		DaysSinceLastTransaction: 12,
		TotalTransactions:        30,
		AvgTransactionAmount:     88.5,
		TotalAmount:              -1500,
		ChurnProbability:         0.2,
	}

	req := c.ChurnRequest()
	assert.Equal(t, "CUST_000001", req.CustomerID)
	assert.Equal(t, 12, req.DaysSinceLastTransaction)
	assert.Equal(t, 30, req.TotalTransactions)
	assert.InDelta(t, 88.5, req.AvgTransactionAmount, 1e-9)
	assert.InDelta(t, -1500, req.TotalAmount, 1e-9)
}

func TestTransactionGenerateID(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-01")
	require.NoError(t, err)

	a := Transaction{CustomerID: "C1", Date: ts, Amount: -25.5, Merchant: "STARBUCKS"}
	b := a
	assert.Equal(t, a.GenerateID(), b.GenerateID())
	assert.Len(t, a.GenerateID(), 16)

	b.Amount = -25.51
	assert.NotEqual(t, a.GenerateID(), b.GenerateID())
}
