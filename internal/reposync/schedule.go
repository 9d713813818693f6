package reposync

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg"
)

// cronLogger routes scheduler messages to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// RunScheduled runs a sync on every activation of the standard cron spec
// until ctx is done. A run still in progress when the next one is due makes
// that activation a no-op. done, when set, is called after every run.
func RunScheduled(ctx context.Context, spec string, opts Options, done func(Summary, error)) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("%w: schedule %q: %v", pkg.ErrInvalidArgument, spec, err)
	}
	log := logger.Logger()
	cl := cronLogger{s: log}

	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	c.Schedule(sched, cron.FuncJob(func() {
		sum, err := Run(ctx, opts)
		if err != nil {
			log.Errorf("scheduled sync: %v", err)
		} else {
			log.Infof("scheduled sync: %d fetched, %d removed, %d failed", sum.Fetched, sum.Removed, sum.Failed)
		}
		if done != nil {
			done(sum, err)
		}
	}))

	log.Infof("syncing on schedule %q", spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
