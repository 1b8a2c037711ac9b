package sink

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/hagay3/baker/engine"
	"github.com/hagay3/baker/errors"
)

// limitedSink paces publishes on the wrapped sink.
type limitedSink struct {
	next    engine.EventSink
	limiter *rate.Limiter
}

func newLimited(next engine.EventSink, perSecond float64) *limitedSink {
	burst := int(perSecond / 10)
	if burst < 1 {
		burst = 1
	}

	return &limitedSink{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (l *limitedSink) Publish(ctx context.Context, event engine.Event) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "EventSink", "Publish", "rate limit wait")
	}

	return l.next.Publish(ctx, event)
}

func (l *limitedSink) Close(timeout time.Duration) error {
	return l.next.Close(timeout)
}
