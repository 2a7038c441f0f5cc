package scraper

import (
	"context"
	"fmt"
	"sync"

	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper/param"
)

// fakeSession simulates a portal page keyed by XPath expression and records every interaction.
type fakeSession struct {
	mu      sync.Mutex
	present map[string]bool
	texts   map[string]string
	actions []string
	closed  int
	panicOn string
}

func portalSession() *fakeSession {
	loc := param.DefaultLocators()
	s := &fakeSession{present: map[string]bool{}, texts: map[string]string{}}
	for _, l := range []types.Locator{
		loc.ConsentButton, loc.ProviderButton, loc.UsernameInput,
		loc.PasswordInput, loc.UtilityCodeInput, loc.SubmitButton,
	} {
		s.present[l.Expr] = true
	}
	s.texts[loc.ReadingTotal.Expr] = "234,32"
	s.texts[loc.MeterID.Expr] = "23522852"
	s.texts[loc.ReadingTimestamp.Expr] = "kl. 18:58, d. 07-10-2024"
	return s
}

func (s *fakeSession) record(action string, loc types.Locator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicOn != "" && s.panicOn == loc.Expr {
		panic("remote browser went away")
	}
	if !s.present[loc.Expr] {
		return fmt.Errorf("%w: %s", chrome.ErrElementNotFound, loc)
	}
	s.actions = append(s.actions, action+" "+loc.Expr)
	return nil
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, "navigate "+url)
	return nil
}

func (s *fakeSession) Present(_ context.Context, loc types.Locator) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, hasText := s.texts[loc.Expr]
	return s.present[loc.Expr] || hasText, nil
}

func (s *fakeSession) Click(_ context.Context, loc types.Locator) error {
	return s.record("click", loc)
}

func (s *fakeSession) SendKeys(_ context.Context, loc types.Locator, text string) error {
	return s.record("type("+text+")", loc)
}

func (s *fakeSession) Text(_ context.Context, loc types.Locator) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[loc.Expr]
	if !ok {
		return "", fmt.Errorf("%w: %s", chrome.ErrElementNotFound, loc)
	}
	return text, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeOpener struct {
	sessions   []*fakeSession
	newSession func() *fakeSession
	err        error
}

func (o *fakeOpener) Open(context.Context) (chrome.Session, error) {
	if o.err != nil {
		return nil, o.err
	}
	s := o.newSession()
	o.sessions = append(o.sessions, s)
	return s, nil
}

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}
