package pipeline

import (
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// progress tracks per-stage completion and logs it at most twice a second,
// so tight worker loops never flood the log.
type progress struct {
	log   *zap.Logger
	stage string
	total int
	done  atomic.Int64
	limit *rate.Limiter
}

func newProgress(log *zap.Logger, stage string, total int) *progress {
	return &progress{
		log:   log,
		stage: stage,
		total: total,
		limit: rate.NewLimiter(rate.Limit(2), 1),
	}
}

// Add records n completed rows.
func (p *progress) Add(n int) {
	done := p.done.Add(int64(n))
	if p.limit.Allow() {
		p.log.Info("progress",
			zap.String("stage", p.stage),
			zap.Int64("done", done),
			zap.Int("total", p.total))
	}
}

// Finish logs the final count unconditionally.
func (p *progress) Finish() {
	p.log.Info("stage complete",
		zap.String("stage", p.stage),
		zap.Int64("done", p.done.Load()),
		zap.Int("total", p.total))
}
