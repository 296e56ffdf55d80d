package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robertmeta/newswire/aggregate"
	"github.com/robertmeta/newswire/api"
	"github.com/robertmeta/newswire/config"
	"github.com/robertmeta/newswire/opml"
	"github.com/robertmeta/newswire/pipeline"
	"github.com/robertmeta/newswire/registry"
	"github.com/robertmeta/newswire/store"
	"github.com/urfave/cli/v2"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}

	app := &cli.App{
		Name:    "newswire",
		Usage:   "Aggregate and normalize news feeds",
		Version: "0.1.0",
		Flags:   config.Flags(),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the optional pipeline scheduler",
				Action: serve,
			},
			{
				Name:      "rss",
				Usage:     "Aggregate a category and print its items",
				ArgsUsage: "[category]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "window",
						Aliases: []string{"w"},
						Usage:   "Recency window (e.g., 6h, 7d, 0 for everything; default: category window)",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Bypass the Redis cache",
					},
				},
				Action: showRSS,
			},
			{
				Name:      "parse",
				Usage:     "Extract metadata from an article page",
				ArgsUsage: "<url>",
				Action:    parsePage,
			},
			{
				Name:      "process",
				Usage:     "Rewrite and store the recent items of a category",
				ArgsUsage: "[category]",
				Action:    process,
			},
			{
				Name:  "news",
				Usage: "List stored articles",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Value:   store.DefaultListLimit,
						Usage:   "Maximum number of articles to return",
					},
					&cli.IntFlag{
						Name:    "offset",
						Aliases: []string{"o"},
						Value:   0,
						Usage:   "Offset for pagination",
					},
					&cli.StringFlag{
						Name:    "category",
						Aliases: []string{"c"},
						Value:   "all",
						Usage:   "Filter by category",
					},
					&cli.StringFlag{
						Name:    "since",
						Aliases: []string{"s"},
						Usage:   "Show articles published since duration (e.g., 6h, 7d, 2w)",
					},
					&cli.StringFlag{
						Name:  "slug",
						Usage: "Show a single article by slug",
					},
				},
				Action: listNews,
			},
			{
				Name:  "sources",
				Usage: "Inspect and convert the source registry",
				Subcommands: []*cli.Command{
					{
						Name:  "export",
						Usage: "Export the registry to OPML",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file (default: stdout)",
							},
						},
						Action: exportSources,
					},
					{
						Name:      "import",
						Usage:     "Convert an OPML file into registry YAML",
						ArgsUsage: "<opml-file>",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file (default: stdout)",
							},
							&cli.StringFlag{
								Name:  "default-category",
								Value: "all",
								Usage: "Category for feeds outside any category outline",
							},
						},
						Action: importSources,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// output opens path for writing, or returns stdout when path is empty.
func output(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func serve(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := a.openStore()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	agg := a.aggregator(ctx, true)
	opts := api.Options{
		Feeds:    agg,
		Pages:    a.extractor(),
		Articles: s,
		Origin:   a.cfg.Origin,
		Location: a.cfg.Location,
		Logger:   a.logger,
	}

	if rw := a.rewriter(); rw != nil {
		proc := pipeline.NewProcessor(agg, rw, s, pipeline.WithLogger(a.logger))
		opts.Rewriter = rw
		opts.Pipeline = proc

		if a.cfg.Schedule != "" {
			sched, err := pipeline.NewScheduler(a.cfg.Schedule, a.cfg.ScheduleCategories, proc, a.logger)
			if err != nil {
				return cli.Exit(err.Error(), ExitUsageError)
			}
			sched.Start()
			defer sched.Stop()
		}
	} else {
		a.logger.Warn("Rewrite service not configured, /rewrite and /cron are disabled")
	}

	if err := api.NewServer(opts).ListenAndServe(ctx, a.cfg.Addr); err != nil {
		return cli.Exit(fmt.Sprintf("Server failed: %v", err), ExitGeneralError)
	}
	return nil
}

func showRSS(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	defer a.Close()

	window := aggregate.UseRegistryWindow
	if raw := c.String("window"); raw != "" {
		window, err = registry.ParseWindow(raw)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Invalid window: %v", err), ExitUsageError)
		}
	}

	category := a.reg.DefaultCategory()
	if c.NArg() > 0 {
		category = c.Args().Get(0)
	}

	res := a.aggregator(c.Context, !c.Bool("no-cache")).Recent(c.Context, category, window)
	return outputJSON(map[string]interface{}{
		"origin":   a.cfg.Origin,
		"category": res.Category,
		"window":   registry.FormatWindow(res.Window),
		"total":    len(res.Items),
		"news":     res.Items,
	})
}

func parsePage(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: newswire parse <url>", ExitUsageError)
	}

	a, err := newApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	defer a.Close()

	meta, err := a.extractor().Extract(c.Context, c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	return outputJSON(meta)
}

func process(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	defer a.Close()

	rw := a.rewriter()
	if rw == nil {
		return cli.Exit("OPENAI_API_KEY is not set", ExitUsageError)
	}

	s, err := a.openStore()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	category := a.reg.DefaultCategory()
	if c.NArg() > 0 {
		category = c.Args().Get(0)
	}

	proc := pipeline.NewProcessor(a.aggregator(ctx, false), rw, s, pipeline.WithLogger(a.logger))
	report, err := proc.Run(ctx, category)
	if err != nil {
		a.logger.Warn("Pipeline run interrupted", slog.String("error", err.Error()))
	}
	if report == nil {
		return cli.Exit(fmt.Sprintf("Pipeline failed: %v", err), ExitGeneralError)
	}
	return outputJSON(report)
}

func listNews(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	defer a.Close()

	s, err := a.openStore()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	if slug := c.String("slug"); slug != "" {
		article, err := s.GetBySlug(c.Context, slug)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to get article: %v", err), ExitDataError)
		}
		return outputJSON(article)
	}

	opts, err := store.BuildListOptions(
		c.Int("limit"),
		c.Int("offset"),
		c.String("category"),
		c.String("since"),
		time.Now(),
	)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid query options: %v", err), ExitUsageError)
	}

	articles, total, err := s.List(c.Context, opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get articles: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"news":    articles,
		"total":   total,
	})
}

func exportSources(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	defer a.Close()

	w, err := output(c.String("output"))
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer w.Close()

	if err := opml.Generate(w, a.reg); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to generate OPML: %v", err), ExitDataError)
	}

	// If outputting to file, also return JSON status
	if c.String("output") != "" {
		return outputJSON(map[string]interface{}{
			"success":    true,
			"file":       c.String("output"),
			"categories": len(a.reg.Categories()),
		})
	}
	return nil
}

func importSources(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: newswire sources import <opml-file>", ExitUsageError)
	}

	file, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to open OPML file: %v", err), ExitDataError)
	}
	defer file.Close()

	reg, err := opml.Parse(file, c.String("default-category"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to parse OPML: %v", err), ExitDataError)
	}

	w, err := output(c.String("output"))
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer w.Close()

	if err := reg.Encode(w); err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	return nil
}
