package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/bfscrawler/internal/config"
	"github.com/nao1215/bfscrawler/internal/crawler"
	"github.com/nao1215/bfscrawler/internal/extract"
	"github.com/nao1215/bfscrawler/internal/fetch"
	"github.com/nao1215/bfscrawler/internal/log"
	"github.com/nao1215/bfscrawler/internal/model"
	"github.com/nao1215/bfscrawler/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url]",
		Short: "Crawl a web site breadth-first from a seed URL",
		Long: `Crawl fetches the seed URL, extracts every anchor on the page, and keeps
following newly found links in breadth-first order.

A URL that cannot be fetched (unreachable host, missing or unsupported
scheme, malformed URL) is reported as broken and the crawl goes on.
Any other failure stops the crawl with an error.

Examples:
  # Crawl up to 100 URLs (the default)
  bfscrawler crawl https://example.com/

  # Crawl more URLs and write a Markdown report
  bfscrawler crawl -l 500 -m -o report.md https://example.com/

  # Crawl through a SOCKS5 proxy and print JSON
  bfscrawler crawl -x 127.0.0.1:9050 -j https://example.com/

Configuration file (.bfscrawler) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      visit_limit: 50

Cookies and headers from a site section are sent only to that host.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().IntP("limit", "l", config.DefaultVisitLimit,
		"Maximum number of URLs to visit")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with each request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of response body bytes to read")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .bfscrawler in current, XDG config or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("quiet", "q", false,
		"Do not print per-URL progress lines")
	cmd.Flags().Bool("log-json", false,
		"Write logs to stderr as JSON")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.LogJSON {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the config file and command flags.
// Flags given explicitly win over the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	if len(args) > 0 {
		cfg.Seed = args[0]
	}

	var err error
	flags := cmd.Flags()

	if cfg.VisitLimit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}

	// A missing config file is only an error when the user named one.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	flagForField := map[string]string{
		"visit_limit": "limit",
		"user_agent":  "user-agent",
	}
	cfg.ApplySiteConfig(cfg.SiteConfigs.SiteConfigFor(cfg.Seed), func(field string) bool {
		name, ok := flagForField[field]
		return ok && flags.Changed(name)
	})

	return cfg, nil
}

// newFetcher builds the HTTP fetcher described by cfg.
func newFetcher(cfg *config.Config) (*fetch.HTTPFetcher, error) {
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	}
	for host, sc := range cfg.Credentials() {
		opts = append(opts, fetch.WithSiteCredentials(host, sc.Cookie, sc.Headers))
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, fetch.WithProxy(cfg.ProxyAddress))
	}
	return fetch.NewHTTPFetcher(opts...)
}

// progressPrinter returns a visit hook that prints one line per dequeued URL
// and a warning per broken URL to w.
func progressPrinter(w io.Writer) func(crawler.Visit) {
	return func(v crawler.Visit) {
		url := log.RedactURL(v.URL)
		fmt.Fprintf(w, "Processing url %d: %s\n", v.Number, url)
		if v.Broken() {
			fmt.Fprintf(w, "Warning: broken url %s\n", url)
		}
	}
}

// runCrawl executes the crawl and writes the report.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	fetcher, err := newFetcher(cfg)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	opts := []crawler.Option{
		crawler.WithVisitLimit(cfg.VisitLimit),
		crawler.WithLogger(logger),
	}
	if !cfg.Quiet {
		opts = append(opts, crawler.WithVisitHook(progressPrinter(stderr)))
	}

	logger.Info("starting crawl",
		"seed", cfg.Seed,
		"visitLimit", cfg.VisitLimit,
		"proxy", cfg.ProxyAddress != "",
	)

	engine := crawler.NewEngine(fetcher, extract.NewHTMLExtractor(), opts...)
	crawlReport, err := engine.Run(ctx, cfg.Seed)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("crawl interrupted: %w", err)
		}
		return fmt.Errorf("crawl failed: %w", err)
	}

	return outputReport(cfg, crawlReport, stdout)
}

// outputReport writes the report to cfg.ReportFile, or to stdout when no
// file is configured, in the format selected by cfg.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports list every crawled URL, which may include private ones.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	if _, err := writer.Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
