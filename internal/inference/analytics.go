package inference

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

// DefaultAnalyticsDays is the transaction analytics window used when none is given.
const DefaultAnalyticsDays = 30

// CustomerAnalytics returns aggregate customer analytics.
func (c *Client) CustomerAnalytics(ctx context.Context) (*model.CustomerAnalytics, error) {
	var out model.CustomerAnalytics
	cl := call{
		method:    http.MethodGet,
		route:     "/api/v1/analytics/customers",
		path:      "/api/v1/analytics/customers",
		cacheable: true,
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TransactionAnalytics returns transaction analytics for the last days days.
// Zero selects DefaultAnalyticsDays; the service accepts 1 through 365.
func (c *Client) TransactionAnalytics(ctx context.Context, days int) (*model.TransactionAnalytics, error) {
	if days == 0 {
		days = DefaultAnalyticsDays
	}
	if days < 1 || days > 365 {
		return nil, common.NewValidationError(fmt.Errorf("days must be between 1 and 365, got %d", days))
	}

	var out model.TransactionAnalytics
	cl := call{
		method:    http.MethodGet,
		route:     "/api/v1/analytics/transactions",
		path:      "/api/v1/analytics/transactions",
		query:     url.Values{"days": []string{strconv.Itoa(days)}},
		cacheable: true,
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
