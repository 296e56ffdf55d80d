package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Runner runs the pipeline for one category.
type Runner interface {
	Run(ctx context.Context, category string) (*Report, error)
}

// Scheduler runs the pipeline for a fixed list of categories on a cron spec.
// A run that is still going when the next one is due makes the next one skip.
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	categories []string
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewScheduler creates a Scheduler. spec uses the standard five field cron
// syntax or descriptors such as "@every 15m".
func NewScheduler(spec string, categories []string, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories to schedule")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       c,
		runner:     runner,
		categories: categories,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	if _, err := c.AddFunc(spec, func() { s.RunOnce(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the scheduler in the background.
func (s *Scheduler) Start() {
	s.logger.Info("Pipeline scheduler started", slog.Any("categories", s.categories))
	s.cron.Start()
}

// Stop cancels a running job and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// RunOnce runs the pipeline for every scheduled category in order.
func (s *Scheduler) RunOnce(ctx context.Context) []*Report {
	reports := make([]*Report, 0, len(s.categories))
	for _, category := range s.categories {
		if ctx.Err() != nil {
			break
		}
		report, err := s.runner.Run(ctx, category)
		if err != nil {
			s.logger.Warn("Scheduled run interrupted",
				slog.String("category", category),
				slog.String("error", err.Error()))
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports
}
