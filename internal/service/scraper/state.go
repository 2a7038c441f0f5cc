package scraper

import "fmt"

// State is one step of an attempt's lifecycle as recorded in Result.Trace.
type State string

const (
	StateInit         State = "INIT"
	StateSessionOpen  State = "SESSION_OPEN"
	StateNavigating   State = "NAVIGATING"
	StateAwaitReading State = "AWAIT_READING"
	StateExtracted    State = "EXTRACTED"
	StatePublished    State = "PUBLISHED"
	StateFailed       State = "FAILED"
	StateSessionClose State = "SESSION_CLOSE"
)

// LoginStep names the i-th login interaction, counted from 1.
func LoginStep(i int) State {
	return State(fmt.Sprintf("LOGIN_STEP_%d", i))
}
