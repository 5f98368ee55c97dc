package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Schedule runs the full pipeline on a standard five-field cron spec until
// ctx is cancelled. A run that is still going when the next tick fires causes
// that tick to be skipped.
func (p *Pipeline) Schedule(ctx context.Context, spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		p.logger.Info("scheduled run starting")
		r := p.Run(ctx)
		for _, s := range r.Steps {
			if s.Err != nil {
				p.logger.Error("scheduled step failed", zap.String("step", s.Name), zap.Error(s.Err))
			} else {
				p.logger.Info("scheduled step finished", zap.String("step", s.Name), zap.String("summary", s.Summary))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling pipeline: %w", err)
	}

	c.Start()
	p.logger.Info("scheduler started", zap.String("cron", spec))
	<-ctx.Done()

	// Wait for a run in flight; it observes the same cancelled ctx.
	<-c.Stop().Done()
	p.logger.Info("scheduler stopped")
	return nil
}
