package onboarding

import (
	"context"
	"time"

	"github.com/suteetoe/salesbot/gomicro/logger"
	"github.com/suteetoe/salesbot/services/chatbot-service/prometheus"
	"go.uber.org/zap"
)

// DefaultCompensationTimeout bounds the whole cleanup after a failed run
const DefaultCompensationTimeout = 30 * time.Second

type compensation struct {
	resource string
	id       string
	undo     func(ctx context.Context) error
}

// saga remembers the remote resources a run created so they can be removed
// in reverse order when a later step fails
type saga struct {
	timeout time.Duration
	done    []compensation
}

func (s *saga) record(resource, id string, undo func(ctx context.Context) error) {
	s.done = append(s.done, compensation{resource: resource, id: id, undo: undo})
}

// unwind runs every recorded compensation, newest first, and reports whether all succeeded.
// Cleanup runs detached from the request's cancellation.
func (s *saga) unwind(ctx context.Context) bool {
	log := logger.FromContext(ctx)

	timeout := s.timeout
	if timeout <= 0 {
		timeout = DefaultCompensationTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	clean := true
	for i := len(s.done) - 1; i >= 0; i-- {
		c := s.done[i]
		if err := c.undo(ctx); err != nil {
			clean = false
			prometheus.CompensationCounter.WithLabelValues(c.resource, "error").Inc()
			log.Error("Compensation failed, resource left behind",
				zap.String("resource", c.resource),
				zap.String("id", c.id),
				zap.Error(err))
			continue
		}
		prometheus.CompensationCounter.WithLabelValues(c.resource, "ok").Inc()
		log.Info("Compensated", zap.String("resource", c.resource), zap.String("id", c.id))
	}
	s.done = nil
	return clean
}
