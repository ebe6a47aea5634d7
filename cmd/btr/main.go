// Command btr builds buy-to-rent investment reports for UK properties.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"

	httpadapter "github.com/ishanyash/btr-propflip/internal/adapter/http"
	"github.com/ishanyash/btr-propflip/internal/adapter/ppd"
	"github.com/ishanyash/btr-propflip/internal/config"
	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/ishanyash/btr-propflip/internal/observability"
	"github.com/ishanyash/btr-propflip/internal/pipeline"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "btr",
		Short:         "UK buy-to-rent property reports",
		Long:          `Aggregates Land Registry, EPC, amenity and rental data for a UK address and renders a scored investment report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(createReportCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createPPDImportCmd())
	rootCmd.AddCommand(createVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat), nil
}

func createReportCmd() *cobra.Command {
	var (
		address  string
		postcode string
		out      string
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a report for one address",
		Example: `  btr report --address "10 Downing Street, London" --postcode "SW1A 2AA"
  btr report --postcode "SW1A 1AA" --out westminster.pdf --markdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(address) == "" && strings.TrimSpace(postcode) == "" {
				return errors.New("--address or --postcode is required")
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger, observability.NewMetrics())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.pipeline.Run(ctx, pipeline.Request{Address: address, Postcode: postcode})
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(cfg.OutputDir, reportFileName(result.Report))
			}
			if err := writeFile(out, result.PDF); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)

			if markdown {
				mdPath := strings.TrimSuffix(out, filepath.Ext(out)) + ".md"
				if err := writeFile(mdPath, []byte(result.Markdown)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mdPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "property address")
	cmd.Flags().StringVar(&postcode, "postcode", "", "property postcode, if not part of the address")
	cmd.Flags().StringVarP(&out, "out", "o", "", "PDF output path (default $OUTPUT_DIR/btr-report-<postcode>-<date>.pdf)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "also write the markdown next to the PDF")
	return cmd
}

func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger, observability.NewMetrics())
			if err != nil {
				return err
			}
			defer a.Close()

			srv := httpadapter.NewServer(cfg.HTTPAddr, a.pipeline, a.pipeline, logger)

			// Start HTTP server.
			errc := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errc:
				return fmt.Errorf("http server: %w", err)
			}
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
}

func createPPDImportCmd() *cobra.Command {
	var published string

	cmd := &cobra.Command{
		Use:   "ppd-import [csv file]",
		Short: "Load a Price Paid Data CSV into the PPD_DATABASE_URL snapshot",
		Long: `Creates the price_paid table if needed and upserts every row of a Land Registry
Price Paid Data CSV (complete file or monthly update). Rows with record status D
are deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if cfg.PPDDatabaseURL == "" {
				return errors.New("PPD_DATABASE_URL is not set")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			publishedAt := domain.Now()
			if published != "" {
				if publishedAt, err = time.Parse(time.DateOnly, published); err != nil {
					return fmt.Errorf("invalid --published %q: want YYYY-MM-DD", published)
				}
			} else if info, err := f.Stat(); err == nil {
				publishedAt = info.ModTime()
			}

			ctx := cmd.Context()
			store, err := ppd.Open(ctx, cfg.PPDDatabaseURL)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			start := time.Now()
			stats, err := store.Import(ctx, f, publishedAt)
			if err != nil {
				return err
			}
			logger.Info("price paid import complete",
				"file", args[0],
				"upserted", stats.Upserted,
				"deleted", stats.Deleted,
				"skipped", stats.Skipped,
				"duration", time.Since(start),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&published, "published", "", "publication date of the file, YYYY-MM-DD (default: file modification time)")
	return cmd
}

func createVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "btr", version)
		},
	}
}

// reportFileName names a report after its postcode and date, falling back
// to the report ID when no postcode was resolved.
func reportFileName(r domain.Report) string {
	key := strings.ReplaceAll(r.Profile.Postcode, " ", "")
	if key == "" {
		key = r.ID
	}
	return fmt.Sprintf("btr-report-%s-%s.pdf", strings.ToLower(key), r.GeneratedAt.Format("20060102"))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
