package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"covid19-scrapers/lib/alert"
	"covid19-scrapers/lib/browser"
	"covid19-scrapers/lib/dataset"
	"covid19-scrapers/lib/restyutil"
	"covid19-scrapers/lib/scrapers/sanmateo"
	"covid19-scrapers/lib/store"
	"covid19-scrapers/lib/telemetry"
	"covid19-scrapers/lib/transport"

	"github.com/spf13/cobra"
)

var (
	scrapeConfig   string
	scrapeFormat   string
	scrapeDb       string
	scrapeRenderer string
	scrapeTemplate string
)

func init() {
	flags := scrapeCmd.Flags()
	flags.StringVar(&scrapeConfig, "config", defaultConfigPath, "The json5 config to read, config.local.json5 overrides are merged over it.")
	flags.StringVar(&scrapeFormat, "format", "", "Output format, json or table.")
	flags.StringVar(&scrapeDb, "db", "", "Archive the run in this sqlite database.")
	flags.StringVar(&scrapeRenderer, "renderer", "", "Render the dashboard with chrome or fetch it as static html.")
	flags.StringVar(&scrapeTemplate, "template", "", "Fill in this document template instead of the built in one.")
	rootCmd.AddCommand(scrapeCmd)
}

// failed wraps err for ExecuteContext, which logs it once telemetry has
// been flushed.
func failed(message string, err error) error {
	return fmt.Errorf("%s: %w", message, err)
}

// applyFlags overrides the config with any flag that was set.
func applyFlags(cmd *cobra.Command, config *Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		config.Output.Format = scrapeFormat
	}
	if flags.Changed("db") {
		config.Output.Db = scrapeDb
	}
	if flags.Changed("renderer") {
		config.Render.Mode = scrapeRenderer
	}
	if flags.Changed("template") {
		config.Output.Template = scrapeTemplate
	}
}

func newClient(config HttpConfig) (*transport.Client, error) {
	opts := transport.ClientOptions{
		UserAgent:        config.UserAgent,
		Timeout:          time.Duration(config.TimeoutSeconds) * time.Second,
		BypassCloudflare: config.BypassCloudflare,
	}
	if config.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(config.DumpDir)
		if err != nil {
			return nil, err
		}
		opts.Dump = output
	}
	return transport.NewClient(opts), nil
}

func newRenderer(config Config, client *transport.Client) browser.Renderer {
	if config.Render.Mode == "static" {
		return browser.StaticRenderer{Client: client}
	}
	userAgent := config.Http.UserAgent
	if userAgent == "" {
		userAgent = transport.DefaultUserAgent
	}
	return browser.NewChromeRenderer(browser.ChromeOptions{
		Headless:  !config.Render.Headful,
		ExecPath:  config.Render.ExecPath,
		UserAgent: userAgent,
	})
}

func loadTemplate(path string) (*dataset.Document, error) {
	if path == "" {
		return nil, nil
	}
	template, err := dataset.LoadTemplate(path)
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func archive(ctx context.Context, path string, doc dataset.Document) error {
	db, err := store.OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := store.NewStore(db).SaveRun(ctx, doc)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "archived run", "db", path, "run_id", id)
	return nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--config <config.json5>] [--format json|table] [--db <runs.db>] [--renderer chrome|static] [--template <template.json5>]",
	Short: "Scrapes the dashboard and prints the county document.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		config, err := loadConfig(scrapeConfig, cmd.Flags().Changed("config"))
		if err != nil {
			return failed("failed to read config", err)
		}
		applyFlags(cmd, &config)
		err = config.validate()
		if err != nil {
			return failed("invalid config", err)
		}

		client, err := newClient(config.Http)
		if err != nil {
			return failed("failed to initialize http client", err)
		}
		template, err := loadTemplate(config.Output.Template)
		if err != nil {
			return failed("failed to load document template", err)
		}

		scraper := sanmateo.NewScraper(client, newRenderer(config, client), sanmateo.Options{
			LandingUrl:    config.LandingUrl,
			RenderTimeout: time.Duration(config.Render.TimeoutSeconds) * time.Second,
			Template:      template,
		})

		slog.InfoContext(ctx, "scraping", "county", sanmateo.CountyName, "renderer", config.Render.Mode)
		doc, err := scraper.Scrape(ctx)
		telemetry.RecordPerfStats(ctx)
		if err != nil {
			notifyErr := alert.NewMailer(config.Alert).NotifyDrift(ctx, sanmateo.CountyName, err)
			if notifyErr != nil {
				slog.ErrorContext(ctx, "failed to send drift alert", "err", notifyErr)
			}
			return failed("scrape failed", err)
		}

		if config.Output.Db != "" {
			err = archive(ctx, config.Output.Db, doc)
			if err != nil {
				return failed("failed to archive run", err)
			}
		}

		switch config.Output.Format {
		case "table":
			writeTables(cmd.OutOrStdout(), doc)
		default:
			err = writeJSON(cmd.OutOrStdout(), doc)
			if err != nil {
				return failed("failed to write document", fmt.Errorf("json: %w", err))
			}
		}
		return nil
	},
}
