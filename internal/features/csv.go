package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/finsight/internal/model"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Column aliases accepted in the CSV header, case-insensitively.
var columnAliases = map[string][]string{
	"transaction_id":   {"transaction_id", "id"},
	"customer_id":      {"customer_id", "customer"},
	"transaction_date": {"transaction_date", "date", "timestamp"},
	"amount":           {"amount"},
	"merchant":         {"merchant", "payee"},
	"category":         {"category"},
	"mode":             {"mode", "payment_method", "payment_mode"},
	"location":         {"location", "city"},
	"description":      {"description", "remarks", "memo"},
	"is_fraud":         {"is_fraud", "fraud"},
}

var requiredColumns = []string{"customer_id", "transaction_date", "amount"}

// ReadCSV parses transactions from a CSV export with a header row. Rows
// without a transaction id get a generated one.
func ReadCSV(r io.Reader) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := columnIndex(header)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var txns []model.Transaction
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		txn, err := parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txns = append(txns, txn)
	}

	return txns, nil
}

func columnIndex(header []string) map[string]int {
	index := make(map[string]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		for canonical, aliases := range columnAliases {
			for _, alias := range aliases {
				if name == alias {
					if _, seen := index[canonical]; !seen {
						index[canonical] = i
					}
				}
			}
		}
	}
	return index
}

func parseRecord(record []string, index map[string]int) (model.Transaction, error) {
	field := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := model.ParseTimestamp(field("transaction_date"))
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(field("amount"), ",", ""), 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount %q: %w", field("amount"), err)
	}

	txn := model.Transaction{
		TransactionID: field("transaction_id"),
		CustomerID:    field("customer_id"),
		Date:          date,
		Amount:        amount,
		Merchant:      field("merchant"),
		Category:      model.Category(strings.ToLower(field("category"))),
		PaymentMethod: model.PaymentMode(field("mode")),
		Location:      field("location"),
		Description:   field("description"),
	}
	if txn.CustomerID == "" {
		return model.Transaction{}, fmt.Errorf("%w: customer_id is empty", ErrMissingColumn)
	}
	if v := field("is_fraud"); v != "" {
		txn.IsFraud, err = strconv.ParseBool(v)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("invalid is_fraud %q: %w", v, err)
		}
	}
	if txn.TransactionID == "" {
		txn.TransactionID = txn.GenerateID()
	}

	return txn, nil
}
