package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

const (
	routeCustomers            = "/api/v1/customers"
	routeCustomer             = "/api/v1/customers/{id}"
	routeCustomerTransactions = "/api/v1/customers/{id}/transactions"
)

// ListCustomers returns one page of customers.
// The listing is accepted as a bare array or wrapped in "customers" or "data".
func (c *Client) ListCustomers(ctx context.Context, query model.CustomerQuery) (*model.CustomerPage, error) {
	if err := validateRequest(query); err != nil {
		return nil, err
	}

	raw, err := c.fetch(ctx, call{
		method: http.MethodGet,
		route:  routeCustomers,
		path:   routeCustomers,
		query:  customerQueryValues(query),
	})
	if err != nil {
		return nil, err
	}
	return DecodeCustomerPage(raw)
}

// GetCustomer returns the full record for one customer.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*model.CustomerDetail, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, common.NewValidationError(errCustomerIDRequired)
	}

	var out model.CustomerDetail
	path := routeCustomers + "/" + url.PathEscape(customerID)
	if err := c.get(ctx, routeCustomer, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CustomerTransactions returns one page of a customer's transactions.
func (c *Client) CustomerTransactions(ctx context.Context, customerID string, query model.TransactionQuery) (*model.TransactionPage, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, common.NewValidationError(errCustomerIDRequired)
	}
	if err := validateRequest(query); err != nil {
		return nil, err
	}

	var out model.TransactionPage
	path := routeCustomers + "/" + url.PathEscape(customerID) + "/transactions"
	if err := c.get(ctx, routeCustomerTransactions, path, transactionQueryValues(query), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeCustomerPage parses a customer listing in any of the shapes the
// service has been seen to return.
func DecodeCustomerPage(raw []byte) (*model.CustomerPage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty customer listing", common.ErrUnexpectedFormat)
	}

	switch trimmed[0] {
	case '[':
		var customers []model.Customer
		if err := json.Unmarshal(trimmed, &customers); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrUnexpectedFormat, err)
		}
		return &model.CustomerPage{Customers: customers}, nil

	case '{':
		var envelope struct {
			Pagination *model.Pagination `json:"pagination"`
			Customers  json.RawMessage   `json:"customers"`
			Data       json.RawMessage   `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrUnexpectedFormat, err)
		}
		for _, list := range []json.RawMessage{envelope.Customers, envelope.Data} {
			if !isJSONArray(list) {
				continue
			}
			var customers []model.Customer
			if err := json.Unmarshal(list, &customers); err != nil {
				return nil, fmt.Errorf("%w: %w", common.ErrUnexpectedFormat, err)
			}
			return &model.CustomerPage{Pagination: envelope.Pagination, Customers: customers}, nil
		}
	}

	return nil, fmt.Errorf("%w: customer listing is neither a list nor a customers/data envelope", common.ErrUnexpectedFormat)
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func customerQueryValues(q model.CustomerQuery) url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Location != "" {
		values.Set("location", q.Location)
	}
	if q.RiskLevel != "" {
		values.Set("risk_level", string(q.RiskLevel))
	}
	if q.AgeMin > 0 {
		values.Set("age_min", strconv.Itoa(q.AgeMin))
	}
	if q.AgeMax > 0 {
		values.Set("age_max", strconv.Itoa(q.AgeMax))
	}
	return values
}

func transactionQueryValues(q model.TransactionQuery) url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Category != "" {
		values.Set("category", string(q.Category))
	}
	if q.IsFraud != nil {
		values.Set("is_fraud", strconv.FormatBool(*q.IsFraud))
	}
	if q.AmountMin != nil {
		values.Set("amount_min", strconv.FormatFloat(*q.AmountMin, 'f', -1, 64))
	}
	if q.AmountMax != nil {
		values.Set("amount_max", strconv.FormatFloat(*q.AmountMax, 'f', -1, 64))
	}
	if q.DateFrom != "" {
		values.Set("date_from", q.DateFrom)
	}
	if q.DateTo != "" {
		values.Set("date_to", q.DateTo)
	}
	return values
}
