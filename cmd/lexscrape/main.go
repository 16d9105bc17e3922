// Command lexscrape copies a duome.eu vocabulary listing into a CSV file.
//
// Usage:
//
//	lexscrape                                    # default listing, headful browser
//	lexscrape -url https://duome.eu/vocabulary/en/fr
//	lexscrape -html saved.html                   # parse a saved page, no browser
//	lexscrape -config lexscrape.yaml -journal runs.db
//	lexscrape -journal runs.db history           # list journaled runs
//	lexscrape -journal runs.db history -run <id> # rows written by one run
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/hazyhaar/lexscrape/browser"
	"github.com/hazyhaar/lexscrape/config"
	"github.com/hazyhaar/lexscrape/display"
	"github.com/hazyhaar/lexscrape/extract"
	"github.com/hazyhaar/lexscrape/htmlpage"
	"github.com/hazyhaar/lexscrape/idgen"
	"github.com/hazyhaar/lexscrape/journal"
	"github.com/hazyhaar/lexscrape/persist"
	"github.com/hazyhaar/lexscrape/pipeline"
	"github.com/hazyhaar/lexscrape/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		slog.Error("lexscrape: fatal", "error", err)
		os.Exit(1)
	}
}

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "lexscrape",
		Usage: "Scrape a duome.eu vocabulary listing into <from>_<to>_<total>.csv",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file",
				Value:   "lexscrape.yaml",
				Sources: cli.EnvVars("LEXSCRAPE_CONFIG"),
			},
			&cli.StringFlag{Name: "journal", Usage: "SQLite run journal path (overrides journal.path)"},
			&cli.StringFlag{Name: "log-level", Usage: "log level: debug, info, warn, error"},
			&cli.StringFlag{Name: "url", Usage: "vocabulary listing URL"},
			&cli.StringFlag{Name: "html", Usage: "read a saved listing page instead of opening a browser"},
			&cli.StringFlag{Name: "out-dir", Usage: "directory for the CSV store"},
			&cli.BoolFlag{Name: "headless", Usage: "run the browser without a window"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			con := display.New(stdout, display.WithColor(isTerminal(stdout)))
			return scrape(ctx, cfg, cmd.String("html"), con, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "list journaled runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "number of runs to show", Value: 20},
					&cli.StringFlag{Name: "run", Usage: "show the rows written by one run"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					con := display.New(stdout)
					if id := cmd.String("run"); id != "" {
						return runEntries(ctx, cfg, id, con)
					}
					return history(ctx, cfg, int(cmd.Int("limit")), con)
				},
			},
		},
	}
}

// flagValues holds the command-line overrides applied over the config file.
type flagValues struct {
	URL      string
	OutDir   string
	Journal  string
	LogLevel string
	Headless *bool
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.IsSet("config"))
	if err != nil {
		return nil, err
	}
	fv := flagValues{
		URL:      cmd.String("url"),
		OutDir:   cmd.String("out-dir"),
		Journal:  cmd.String("journal"),
		LogLevel: cmd.String("log-level"),
	}
	if cmd.IsSet("headless") {
		h := cmd.Bool("headless")
		fv.Headless = &h
	}
	if err := applyFlags(cfg, fv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, fv flagValues) error {
	if fv.URL != "" {
		cfg.Source.URL = fv.URL
	}
	if fv.OutDir != "" {
		cfg.Output.Dir = fv.OutDir
	}
	if fv.Journal != "" {
		cfg.Journal.Path = fv.Journal
	}
	if fv.Headless != nil {
		cfg.Browser.Headless = *fv.Headless
	}
	if fv.LogLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(fv.LogLevel)); err != nil {
			return fmt.Errorf("lexscrape: log-level: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("lexscrape: %w", err)
	}
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// scrape runs one extraction. With htmlPath set the listing is read from
// disk; otherwise a browser session is opened for the duration of the run.
func scrape(ctx context.Context, cfg *config.Config, htmlPath string, con *display.Console, logger *slog.Logger) error {
	src, err := source.Parse(cfg.Source.URL)
	if err != nil {
		return err
	}

	var driver pipeline.Driver
	if htmlPath != "" {
		driver = htmlpage.FileDriver{Path: htmlPath}
	} else {
		mgr := browser.NewManager(cfg.BrowserSession(logger))
		if _, err := mgr.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if cerr := mgr.Close(); cerr != nil {
				logger.Warn("lexscrape: close browser", "error", cerr)
			}
		}()
		driver = browser.NewDriver(mgr)
	}

	csv := persist.NewCSV(cfg.Output.Dir,
		persist.WithCRLF(cfg.Output.CRLFEnabled()),
		persist.WithSync(cfg.Output.SyncEnabled()))
	targets := []persist.Persister{csv}

	var run *journal.Run
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path,
			journal.WithLogger(logger), journal.WithBusyTimeout(cfg.Journal.BusyTimeout))
		if err != nil {
			return err
		}
		defer j.Close()
		if run, err = j.Begin(ctx, src); err != nil {
			return err
		}
		targets = append(targets, run)
	}

	p := pipeline.New(pipeline.Config{
		Driver:    driver,
		Extractor: extract.New(cfg.Selectors.Entry),
		Persister: persist.NewRouter(logger, targets...),
		Selectors: cfg.Selectors.Listing,
		Observer:  con,
		Logger:    logger,
	})

	logger.Info("lexscrape: run started", "source", src.URL, "out", cfg.Output.Dir)
	rep, runErr := p.Run(ctx, src)
	if run != nil {
		// The run context may already be cancelled; the outcome is still recorded.
		if err := run.Finish(context.WithoutCancel(ctx), rep, runErr); err != nil {
			logger.Warn("lexscrape: journal finish", "run", run.ID, "error", err)
		}
	}
	con.Summary(rep, runErr)
	if runErr == nil && rep.StoreID != "" {
		logger.Info("lexscrape: stored", "path", csv.Path(rep.StoreID), "written", rep.Written)
	}
	return runErr
}

func openJournal(cfg *config.Config) (*journal.Journal, error) {
	if cfg.Journal.Path == "" {
		return nil, fmt.Errorf("lexscrape: history: no journal configured (set journal.path or -journal)")
	}
	return journal.Open(cfg.Journal.Path, journal.WithBusyTimeout(cfg.Journal.BusyTimeout))
}

func history(ctx context.Context, cfg *config.Config, limit int, con *display.Console) error {
	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Recent(ctx, limit)
	if err != nil {
		return err
	}
	con.History(runs)
	return nil
}

// runEntries lists the rows one run wrote. The "run_" prefix is optional.
func runEntries(ctx context.Context, cfg *config.Config, id string, con *display.Console) error {
	runID, err := idgen.Parse(id)
	if err != nil {
		return err
	}
	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.Entries(ctx, runID)
	if err != nil {
		return err
	}
	con.Entries(runID, recs)
	return nil
}
