package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/engine"
	"github.com/tartampluch/go-gedcheck/internal/report"
	"github.com/tartampluch/go-gedcheck/internal/server"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *cli) *cobra.Command {
	var (
		src      sourceFlags
		dates    dateFlags
		det      detectorFlags
		lang     string
		port     string
		interval int
	)

	cmd := &cobra.Command{
		Use:   config.CmdServe,
		Short: config.CmdShortServe,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings
			src.apply(cmd, args, s)
			dates.apply(cmd, s)
			det.apply(cmd, s)
			applyLang(cmd, lang, s)
			if cmd.Flags().Changed(config.FlagPort) {
				s.Server.Port = port
			}
			if cmd.Flags().Changed(config.FlagInterval) {
				s.Server.IntervalMin = interval
			}
			if err := s.Validate(); err != nil {
				return err
			}

			loc, err := report.NewLocalizer(s.Report.Language)
			if err != nil {
				return err
			}
			an, err := newAnalyzer(s, loc, a.now())
			if err != nil {
				return err
			}

			f := &feeder{
				srv:      server.NewCalendarServer(s.Server.Port),
				analyzer: an,
				loc:      loc,
				clock:    a.now(),
			}
			if hasSource(s) {
				sc := sourceConfig(s)
				f.source = &sc
			} else {
				f.srv.Root = config.FeedCalendar
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return f.srv.Start(ctx) })
			g.Go(func() error {
				runWorker(ctx, time.Duration(s.Server.IntervalMin)*time.Minute, f.refresh)
				return nil
			})
			return g.Wait()
		},
	}

	src.register(cmd)
	dates.register(cmd)
	det.register(cmd)
	registerLang(cmd, &lang)
	cmd.Flags().StringVar(&port, config.FlagPort, config.DefaultPort, config.FlagDescPort)
	cmd.Flags().IntVar(&interval, config.FlagInterval, config.DefaultRefreshMin, config.FlagDescInterval)
	return cmd
}

// feeder renders the feeds of the server.
type feeder struct {
	srv      *server.CalendarServer
	analyzer *engine.Analyzer
	loc      *report.Localizer
	clock    engine.Clock
	source   *engine.SourceConfig // nil serves the calendar only
}

// refresh re-renders the liturgical calendar around the current year and,
// when a source is configured, re-runs the analysis. A failed analysis
// keeps the previous findings feed.
func (f *feeder) refresh(ctx context.Context) {
	now := f.clock.Now()
	year := now.Year()
	if data, err := report.CalendarICS(year-1, year+1, f.loc, now); err == nil {
		f.srv.Update(config.FeedCalendar, data)
	} else {
		slog.Error(config.ErrICalEncode, config.LogKeyComponent, config.CompWorker, config.LogKeyError, err)
	}

	if f.source == nil {
		return
	}
	res, err := f.analyzer.Run(ctx, *f.source)
	if err != nil {
		slog.Error(config.MsgAnalysisFailed, config.LogKeyComponent, config.CompWorker, config.LogKeyError, err)
		return
	}
	data, err := report.FindingsICS(res, f.loc)
	if err != nil {
		slog.Error(config.ErrICalEncode, config.LogKeyComponent, config.CompWorker, config.LogKeyError, err)
		return
	}
	f.srv.Update(config.FeedFindings, data)
}

// runWorker runs job once, then every interval until ctx is cancelled.
// A zero interval runs it only once.
func runWorker(ctx context.Context, interval time.Duration, job func(context.Context)) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	job(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, interval)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}
