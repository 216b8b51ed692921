package main

import (
	"fmt"
	"io"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/config"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export scored customers",
	}

	toSheets := &cobra.Command{
		Use:   "sheets",
		Short: "Score customers and write the churn report to Google Sheets",
		Long: `Score every customer matching the filters and replace the contents of
the configured spreadsheet with four tabs: Summary, Customers, Risk Bands
and Segments. A spreadsheet is created when none is configured.

Authentication uses a service account (sheets.service_account_path) or
OAuth2 client credentials with a refresh token or token file. Run
'finsight export auth' once to obtain a token file.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return err
			}
			if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
				sheetsCfg.SpreadsheetID = id
			}

			writer, err := sheets.NewWriter(ctx, *sheetsCfg, a.logger)
			if err != nil {
				return err
			}

			query, err := customerQueryFromFlags(cmd)
			if err != nil {
				return err
			}
			chunkSize, _ := cmd.Flags().GetInt("chunk-size")

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Export", "The spreadsheet was not updated.")
			ctx, stop := handler.HandleInterrupts(ctx)
			defer stop()

			progress := cli.NewProgress(cmd.ErrOrStderr(), -1, "Scoring customers")
			report, err := a.builder.Export(ctx, writer, query, chunkSize, progress.Set)
			progress.Finish()
			if err != nil {
				if handler.WasInterrupted() {
					return nil
				}
				return err
			}

			return render(cmd, report.Summary, func(w io.Writer) error {
				s := report.Summary
				_, err := fmt.Fprintln(w, cli.RenderBox(cli.FormatSuccess("Churn report exported"), cli.KeyValues([][2]string{
					{"Customers", dashboard.FormatNumber(len(report.Customers))},
					{"Scored", dashboard.FormatNumber(s.TotalCustomers)},
					{"High risk", dashboard.FormatNumber(s.HighRiskCustomers)},
					{"Avg churn probability", dashboard.FormatPercent(s.AvgChurnProbability)},
				})))
				return err
			})
		}),
	}
	addCustomerQueryFlags(toSheets)
	toSheets.Flags().String("spreadsheet-id", "", "spreadsheet to overwrite (default from config)")
	toSheets.Flags().Int("chunk-size", dashboard.DefaultChunkSize, "customers per scoring request")

	auth := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Sheets access with OAuth2",
		Long: `Run the OAuth2 consent flow in the browser and store the token in
sheets.token_file. An existing valid token is reused, and an expired one
is refreshed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return err
			}
			if sheetsCfg.ClientID == "" || sheetsCfg.ClientSecret == "" {
				return fmt.Errorf("sheets.client_id and sheets.client_secret are required")
			}
			if sheetsCfg.TokenFile == "" {
				return fmt.Errorf("sheets.token_file is required to store the token")
			}

			out := cmd.OutOrStdout()
			callback, _ := cmd.Flags().GetString("callback-addr")
			_, err = sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
				ClientID:     sheetsCfg.ClientID,
				ClientSecret: sheetsCfg.ClientSecret,
				TokenFile:    sheetsCfg.TokenFile,
				CallbackAddr: callback,
				ShowURL: func(url string) {
					fmt.Fprintln(out, cli.FormatInfo("Open this URL to authorize access:"))
					fmt.Fprintln(out, url)
				},
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, cli.FormatSuccess("Token saved to "+sheetsCfg.TokenFile))
			return err
		},
	}
	auth.Flags().String("callback-addr", "", "local address for the OAuth2 callback (default localhost:8085)")

	cmd.AddCommand(toSheets, auth)
	return cmd
}
