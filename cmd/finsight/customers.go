package main

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/spf13/cobra"
)

func addCustomerQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("search", "", "search by customer id or name")
	f.String("location", "", "filter by location")
	f.String("risk-level", "", "filter by risk level (Low, Medium, High, Critical)")
	f.Int("page", 0, "page number")
	f.Int("page-size", 0, "customers per page (max 500)")
	f.Int("age-min", 0, "minimum age")
	f.Int("age-max", 0, "maximum age")
}

func customerQueryFromFlags(cmd *cobra.Command) (model.CustomerQuery, error) {
	f := cmd.Flags()
	var q model.CustomerQuery
	var risk string
	var err error
	if q.Search, err = f.GetString("search"); err != nil {
		return q, err
	}
	if q.Location, err = f.GetString("location"); err != nil {
		return q, err
	}
	if risk, err = f.GetString("risk-level"); err != nil {
		return q, err
	}
	q.RiskLevel = model.RiskLevel(risk)
	if q.Page, err = f.GetInt("page"); err != nil {
		return q, err
	}
	if q.PageSize, err = f.GetInt("page-size"); err != nil {
		return q, err
	}
	if q.AgeMin, err = f.GetInt("age-min"); err != nil {
		return q, err
	}
	q.AgeMax, err = f.GetInt("age-max")
	return q, err
}

func customersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Browse customers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			query, err := customerQueryFromFlags(cmd)
			if err != nil {
				return err
			}
			page, err := a.api.ListCustomers(cmd.Context(), query)
			if err != nil {
				return err
			}
			return render(cmd, page, func(w io.Writer) error {
				if err := printCustomers(w, page.Customers); err != nil {
					return err
				}
				if p := page.Pagination; p != nil {
					_, err := fmt.Fprintln(w, cli.SubtleStyle.Render(
						fmt.Sprintf("Page %d of %d (%s customers)", p.Page, p.TotalPages, dashboard.FormatNumber(p.TotalCustomers))))
					return err
				}
				return nil
			})
		}),
	}
	addCustomerQueryFlags(list)

	show := &cobra.Command{
		Use:   "show CUSTOMER_ID",
		Short: "Show one customer with recent transactions",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runCustomerShow),
	}
	show.Flags().Int("transactions", 20, "transactions to show")
	show.Flags().String("category", "", "only transactions in this category")
	show.Flags().String("from", "", "transactions on or after this date (YYYY-MM-DD)")
	show.Flags().String("to", "", "transactions on or before this date (YYYY-MM-DD)")
	show.Flags().Bool("fraud-only", false, "only fraudulent transactions")

	cmd.AddCommand(list, show)
	return cmd
}

func runCustomerShow(cmd *cobra.Command, args []string, a *app) error {
	f := cmd.Flags()
	limit, _ := f.GetInt("transactions")
	category, _ := f.GetString("category")
	from, _ := f.GetString("from")
	to, _ := f.GetString("to")

	query := model.TransactionQuery{
		Category: model.Category(category),
		DateFrom: from,
		DateTo:   to,
		PageSize: limit,
	}
	if fraudOnly, _ := f.GetBool("fraud-only"); fraudOnly {
		query.IsFraud = &fraudOnly
	}

	view := a.builder.Customer(cmd.Context(), args[0], query)
	return renderBanner(cmd, view, view.Error, func(w io.Writer) error {
		c := view.Detail.Customer
		s := view.Detail.TransactionSummary
		pairs := [][2]string{
			{"Name", c.Name},
			{"Location", c.Location},
			{"Segment", string(c.Segment)},
			{"Risk", cli.RiskStyle(string(c.RiskLevel)).Render(string(c.RiskLevel))},
			{"Churn probability", dashboard.FormatPercent(c.ChurnProbability)},
			{"Transactions", dashboard.FormatNumber(s.TotalTransactions)},
			{"Total", dashboard.FormatCurrency(s.TotalAmount)},
			{"Average", dashboard.FormatCurrency(s.AvgAmount)},
		}
		if first, last := s.DateRange.FirstTransaction, s.DateRange.LastTransaction; first != nil && last != nil {
			pairs = append(pairs, [2]string{"Active", first.Format("2006-01-02") + " to " + last.Format("2006-01-02")})
		}
		if _, err := fmt.Fprintln(w, cli.RenderBox(c.CustomerID, cli.KeyValues(pairs))); err != nil {
			return err
		}

		if len(s.TopCategories) > 0 {
			if _, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("Top categories"),
				cli.Table([]string{"Category", "Count"}, countRows(s.TopCategories, strconv.Itoa), nil)); err != nil {
				return err
			}
		}
		return printTransactions(w, view.Transactions)
	})
}

func printTransactions(w io.Writer, txns []model.Transaction) error {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		fraud := ""
		if t.IsFraud {
			fraud = cli.ErrorIcon
		}
		rows = append(rows, []string{
			t.Date.Format("2006-01-02"),
			t.Merchant,
			string(t.Category),
			string(t.PaymentMethod),
			dashboard.FormatCurrency(t.Amount),
			fraud,
		})
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("Transactions"),
		cli.Table([]string{"Date", "Merchant", "Category", "Method", "Amount", "Fraud"}, rows, nil))
	return err
}

func analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Raw analytics from the inference service",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "customers",
		Short: "Aggregate customer analytics",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			analytics, err := a.api.CustomerAnalytics(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, analytics, func(w io.Writer) error { return printCustomerAnalytics(w, analytics) })
		}),
	})

	tx := &cobra.Command{
		Use:   "transactions",
		Short: "Aggregate transaction analytics",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			days, _ := cmd.Flags().GetInt("days")
			if days < 1 || days > dashboard.MaxAnalyticsDays {
				return fmt.Errorf("--days must be between 1 and %d", dashboard.MaxAnalyticsDays)
			}
			analytics, err := a.api.TransactionAnalytics(cmd.Context(), days)
			if err != nil {
				return err
			}
			return render(cmd, analytics, func(w io.Writer) error {
				if err := printTransactionAnalytics(w, analytics); err != nil {
					return err
				}
				merchants := analytics.TopMerchants
				names := slices.SortedFunc(maps.Keys(merchants), func(x, y string) int {
					if c := cmp.Compare(merchants[y], merchants[x]); c != 0 {
						return c
					}
					return cmp.Compare(x, y)
				})
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{name, strconv.Itoa(merchants[name])})
				}
				_, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("Top merchants"),
					cli.Table([]string{"Merchant", "Transactions"}, rows, nil))
				return err
			})
		}),
	}
	tx.Flags().Int("days", 30, "analytics window in days")
	cmd.AddCommand(tx)

	return cmd
}
