// Command potd fetches a picture of the day from one of several online
// sources, downloads it, and optionally sets it as the desktop wallpaper.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/swsnr/picture-of-the-day-sub000/internal/config"
	"github.com/swsnr/picture-of-the-day-sub000/internal/history"
	"github.com/swsnr/picture-of-the-day-sub000/internal/httpclient"
	"github.com/swsnr/picture-of-the-day-sub000/internal/schedule"
	"github.com/swsnr/picture-of-the-day-sub000/internal/source"
	"github.com/swsnr/picture-of-the-day-sub000/internal/update"
	"github.com/swsnr/picture-of-the-day-sub000/internal/wallpaper"
)

// Version is set during build.
var Version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "potd",
		Usage:   "Fetch a picture of the day and set it as wallpaper",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   defaultConfigPath(),
				Sources: cli.EnvVars("POTD_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Fetch and download today's picture",
				Flags:  fetchFlags(),
				Action: runFetch,
			},
			{
				Name:   "set",
				Usage:  "Fetch today's picture and set it as wallpaper",
				Flags: append(fetchFlags(), &cli.StringFlag{
					Name:  "placement",
					Usage: "Where to apply the wallpaper: background, lockscreen, both",
					Value: "background",
				}),
				Action: runSet,
			},
			{
				Name:   "daemon",
				Usage:  "Run the automatic update scheduler",
				Action: runDaemon,
			},
			{
				Name:  "history",
				Usage: "List recently downloaded pictures",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum entries to list", Value: 20},
				},
				Action: runHistory,
			},
			{
				Name:   "sources",
				Usage:  "List the available picture sources",
				Action: runSources,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

// errorHint suggests a remedy for known fetch failures. A 404 from a source
// usually means the source simply has nothing for the requested day, so it
// gets the same hint as an explicit no-image answer.
func errorHint(err error) string {
	var srcErr *source.Error
	if !errors.As(err, &srcErr) {
		return ""
	}
	switch srcErr.Kind {
	case source.KindInvalidAPIKey:
		return "Check the apod_api_key setting; request a key at https://api.nasa.gov/."
	case source.KindRateLimited:
		return "The source is throttling requests, try again later."
	case source.KindNoImage, source.KindNotAnImage:
		return "The source has no picture for this day; try another source or date."
	case source.KindHTTPStatus:
		if srcErr.Status == http.StatusNotFound {
			return "The source has no picture for this day; try another source or date."
		}
	}
	return ""
}

func fetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Source to fetch from (overrides configuration)",
		},
		&cli.StringFlag{
			Name:  "date",
			Usage: "Fetch the picture of a specific day (YYYY-MM-DD)",
		},
	}
}

func defaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "potd.yaml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "potd", "potd.yaml")
}

type app struct {
	logger  *log.Logger
	cfg     config.Config
	store   *history.Store
	updater *update.Updater
}

func setup(cmd *cli.Command) (*app, error) {
	logger := log.New(os.Stdout, "potd: ", log.LstdFlags)

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.HistoryDB), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	store, err := history.Open(cfg.HistoryDB, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		logger:  logger,
		cfg:     cfg,
		store:   store,
		updater: update.New(httpclient.New(), logger, store, cfg),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Printf("Failed to close history store: %v", err)
	}
}

// resolveSource picks the source from the flag or the configuration.
func (a *app) resolveSource(cmd *cli.Command) (source.Source, error) {
	if id := cmd.String("source"); id != "" {
		return source.FromID(id)
	}
	return a.cfg.SelectedSource()
}

func resolveDate(cmd *cli.Command) (time.Time, error) {
	value := cmd.String("date")
	if value == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return date, nil
}

func fetchOnce(ctx context.Context, cmd *cli.Command) (*app, string, error) {
	a, err := setup(cmd)
	if err != nil {
		return nil, "", err
	}
	src, err := a.resolveSource(cmd)
	if err != nil {
		a.close()
		return nil, "", err
	}
	date, err := resolveDate(cmd)
	if err != nil {
		a.close()
		return nil, "", err
	}
	path, err := a.updater.Update(ctx, src, date)
	if err != nil {
		a.close()
		return nil, "", err
	}
	return a, path, nil
}

func runFetch(ctx context.Context, cmd *cli.Command) error {
	a, path, err := fetchOnce(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	fmt.Println(path)
	return nil
}

func runSet(ctx context.Context, cmd *cli.Command) error {
	placement, err := wallpaper.ParsePlacement(cmd.String("placement"))
	if err != nil {
		return err
	}
	a, path, err := fetchOnce(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := wallpaper.Set(ctx, a.logger, path, placement); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runDaemon(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := a.cfg.SelectedSource()
	if err != nil {
		return err
	}

	cadence, threshold := a.cfg.RefreshTimings()
	scheduler := schedule.New(a.logger, src, schedule.Config{
		Cadence:   cadence,
		Threshold: threshold,
	})
	scheduler.Start()
	defer scheduler.Stop()
	if !a.cfg.AutomaticUpdates {
		scheduler.SetInhibitor(schedule.DisabledByUser)
	}

	// Configuration changes reach the running scheduler live: the user flag
	// owns the DisabledByUser bit, a source switch restarts the timer.
	go func() {
		err := config.Watch(ctx, cmd.String("config"), a.logger, func(cfg config.Config) {
			a.updater.SetConfig(cfg)
			if cfg.AutomaticUpdates {
				scheduler.ClearInhibitor(schedule.DisabledByUser)
			} else {
				scheduler.SetInhibitor(schedule.DisabledByUser)
			}
			if newSrc, err := cfg.SelectedSource(); err == nil {
				scheduler.SetSource(newSrc)
			}
		})
		if err != nil {
			a.logger.Printf("Configuration watcher stopped: %v", err)
		}
	}()

	a.logger.Printf("Starting potd daemon v%s", Version)
	for {
		select {
		case <-ctx.Done():
			a.logger.Printf("Shutting down")
			return nil
		case req := <-scheduler.Requests():
			path, err := a.updater.Update(req.Context(), req.Source(), time.Time{})
			if err == nil {
				a.logger.Printf("Updated picture of the day: %s", path)
			}
			req.Respond(err)
		}
	}
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	downloads, err := a.store.Recent(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(downloads) == 0 {
		fmt.Println("No downloads recorded")
		return nil
	}
	for _, d := range downloads {
		title := d.Title
		if title == "" {
			title = d.Filename
		}
		fmt.Printf("%s  %-10s  %s\n", d.Day.Format("2006-01-02"), d.Source, title)
	}
	return nil
}

func runSources(_ context.Context, _ *cli.Command) error {
	for _, s := range source.All() {
		fmt.Printf("%-10s  %s (%s)\n", s.ID(), s.Name(), s.URL())
	}
	return nil
}
