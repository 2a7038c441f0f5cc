package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/domain/model"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/metrics"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/publisher"
	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper/param"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ScraperService runs one scrape-and-publish attempt per call.
type ScraperService interface {
	Attempt(ctx context.Context) Result
}

// Result describes one finished attempt. Err is nil only when the reading
// was handed to the broker.
type Result struct {
	Attempt  uint64
	Trace    []State
	Reading  model.Reading
	Payload  []byte
	Kind     FailureKind
	Err      error
	Duration time.Duration
}

func (r Result) OK() bool { return r.Err == nil }

func (r *Result) enter(s State) { r.Trace = append(r.Trace, s) }

func (r *Result) fail(err error) {
	r.enter(StateFailed)
	r.Err = err
	r.Kind = Classify(err)
}

// failedIn returns the state the attempt was in when it failed.
func (r Result) failedIn() State {
	for i := len(r.Trace) - 1; i >= 0; i-- {
		if s := r.Trace[i]; s != StateFailed && s != StateSessionClose {
			return s
		}
	}
	return StateInit
}

type scraperService struct {
	opener    chrome.Opener
	publisher publisher.Publisher
	recorder  *metrics.Recorder
	params    param.Scrape
	logger    *slog.Logger
	tracer    trace.Tracer
	seq       atomic.Uint64
}

func InitScraperService(
	opener chrome.Opener,
	pub publisher.Publisher,
	recorder *metrics.Recorder,
	params param.Scrape,
) ScraperService {
	return &scraperService{
		opener:    opener,
		publisher: pub,
		recorder:  recorder,
		params:    params.WithDefaults(),
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/LouYuanbo1/mvfscraper/internal/service/scraper"),
	}
}

// Attempt never panics and never returns without closing the session it opened.
func (ss *scraperService) Attempt(ctx context.Context) (res Result) {
	start := time.Now()
	res.Attempt = ss.seq.Add(1)
	log := ss.logger.With("attempt", res.Attempt)

	ctx, span := ss.tracer.Start(ctx, "scrape.attempt",
		trace.WithAttributes(attribute.Int64("attempt", int64(res.Attempt))))
	defer span.End()

	res.enter(StateInit)
	var session chrome.Session
	defer func() {
		if r := recover(); r != nil {
			res.fail(fmt.Errorf("%w: %v", ErrPanic, r))
		}
		res.enter(StateSessionClose)
		if session != nil {
			if err := closeSession(session); err != nil {
				log.Warn("closing browser session failed", "err", err)
			}
		}
		res.Duration = time.Since(start)
		ss.report(log, span, res)
	}()

	var err error
	session, err = ss.openSession(ctx)
	if err != nil {
		res.fail(err)
		return res
	}
	res.enter(StateSessionOpen)

	if err := ss.login(ctx, session, &res); err != nil {
		res.fail(err)
		return res
	}

	res.enter(StateAwaitReading)
	reading, err := ss.extract(ctx, session)
	if err != nil {
		res.fail(err)
		return res
	}
	res.Reading = reading
	res.enter(StateExtracted)

	payload, err := reading.Payload()
	if err != nil {
		res.fail(fmt.Errorf("%w: encode reading: %w", ErrPublish, err))
		return res
	}
	res.Payload = payload

	if err := ss.publish(ctx, payload); err != nil {
		res.fail(err)
		return res
	}
	res.enter(StatePublished)
	return res
}

func (ss *scraperService) openSession(ctx context.Context) (chrome.Session, error) {
	ctx, span := ss.tracer.Start(ctx, "scrape.open_session")
	defer span.End()

	session, err := ss.opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionOpen, err)
	}
	return session, nil
}

func (ss *scraperService) login(ctx context.Context, session chrome.Session, res *Result) error {
	ctx, span := ss.tracer.Start(ctx, "scrape.login")
	defer span.End()

	return Login(ctx, session, ss.params, func(s State) {
		res.enter(s)
		span.AddEvent(string(s))
	})
}

func (ss *scraperService) extract(ctx context.Context, session chrome.Session) (model.Reading, error) {
	ctx, span := ss.tracer.Start(ctx, "scrape.extract")
	defer span.End()

	return ExtractReading(ctx, session, ss.params)
}

func (ss *scraperService) publish(ctx context.Context, payload []byte) error {
	ctx, span := ss.tracer.Start(ctx, "scrape.publish")
	defer span.End()

	err := ss.publisher.Publish(ctx, payload)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBrokerUnreachable):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
}

func (ss *scraperService) report(log *slog.Logger, span trace.Span, res Result) {
	if res.OK() {
		span.SetStatus(codes.Ok, "")
		ss.recorder.ObserveSuccess(res.Reading.Total, res.Duration)
		log.Info("reading published",
			"total", res.Reading.Total,
			"meter_id", res.Reading.MeterID,
			"timestamp", res.Reading.Timestamp,
			"duration", res.Duration)
		return
	}

	span.RecordError(res.Err)
	span.SetStatus(codes.Error, string(res.Kind))
	ss.recorder.ObserveFailure(string(res.Kind), res.Duration)

	if res.Kind == KindBrokerUnreachable {
		log.Error("cannot reach broker", "err", res.Err)
		return
	}
	log.Error("scrape attempt failed, keep running",
		"state", res.failedIn(),
		"kind", res.Kind,
		"err", res.Err)
}

// closeSession keeps a panic during close inside the attempt as well.
func closeSession(session chrome.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: close: %v", ErrPanic, r)
		}
	}()
	return session.Close()
}
