package main

import (
	"github.com/Veraticus/finsight/internal/certs"
	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON backend",
		Long: `Serve every dashboard page, the documentation content and the
inference proxy endpoints as JSON for a web front end. Prometheus metrics
are exposed on /metrics.

With --tls the backend serves HTTPS using a self-signed certificate that
is created in server.tls.cert_dir on first use and renewed before it
expires.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			addr := a.cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}
			gin.SetMode(a.cfg.Server.Mode)

			opts := []server.Option{server.WithLogger(a.logger), server.WithVersion(version)}
			if a.store != nil {
				opts = append(opts, server.WithStorage(a.store))
			}

			scheme := "http"
			tlsCfg := a.cfg.Server.TLS
			if useTLS, _ := cmd.Flags().GetBool("tls"); useTLS || tlsCfg.Enabled {
				mgr := certs.NewFileManager(tlsCfg.CertDir, tlsCfg.Hosts...)
				tc, err := mgr.TLSConfig()
				if err != nil {
					return err
				}
				a.logger.Debug("Loaded server certificate", "cert", mgr.CertFile())
				opts = append(opts, server.WithTLS(tc))
				scheme = "https"
			}
			srv := server.New(a.api, a.builder, opts...)

			cmd.PrintErrln(cli.FormatInfo("Listening on " + scheme + "://" + addr))
			return srv.Run(cmd.Context(), addr)
		}),
	}
	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	return cmd
}
