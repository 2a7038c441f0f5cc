package scraper

import (
	"errors"

	"github.com/LouYuanbo1/mvfscraper/internal/domain/entity"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/publisher"
)

var (
	ErrSessionOpen    = errors.New("cannot open browser session")
	ErrElementTimeout = errors.New("timed out waiting for element")
	ErrInteraction    = errors.New("navigation or interaction failure")
	ErrParse          = entity.ErrParse
	ErrPublish        = errors.New("publish failure")
	ErrPanic          = errors.New("attempt panicked")

	ErrBrokerUnreachable = publisher.ErrBrokerUnreachable
)

// FailureKind is the coarse reason an attempt failed, used as a log and metric label.
type FailureKind string

const (
	KindNone              FailureKind = ""
	KindSession           FailureKind = "session"
	KindInteraction       FailureKind = "interaction"
	KindElementTimeout    FailureKind = "element_timeout"
	KindParse             FailureKind = "parse"
	KindBrokerUnreachable FailureKind = "broker_unreachable"
	KindPublish           FailureKind = "publish"
	KindPanic             FailureKind = "panic"
	KindOther             FailureKind = "other"
)

// Classify maps a stage error to its FailureKind. The stage sentinel wins over
// ErrElementTimeout, which only says why the stage failed.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPanic):
		return KindPanic
	case errors.Is(err, ErrBrokerUnreachable):
		return KindBrokerUnreachable
	case errors.Is(err, ErrSessionOpen):
		return KindSession
	case errors.Is(err, ErrInteraction):
		return KindInteraction
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrElementTimeout):
		return KindElementTimeout
	case errors.Is(err, ErrPublish):
		return KindPublish
	default:
		return KindOther
	}
}
