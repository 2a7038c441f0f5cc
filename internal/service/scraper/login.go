package scraper

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper/param"
)

// loginStep is one login interaction; with wait set the element is awaited first.
type loginStep struct {
	name string
	loc  types.Locator
	wait bool
	// nil act means the step only waits.
	act func(ctx context.Context, s chrome.Session, loc types.Locator) error
}

func click(ctx context.Context, s chrome.Session, loc types.Locator) error {
	return s.Click(ctx, loc)
}

func typeText(text string) func(context.Context, chrome.Session, types.Locator) error {
	return func(ctx context.Context, s chrome.Session, loc types.Locator) error {
		return s.SendKeys(ctx, loc, text)
	}
}

func loginSteps(p param.Scrape) []loginStep {
	loc := p.Locators
	cred := p.Credentials
	return []loginStep{
		{name: "accept consent", loc: loc.ConsentButton, wait: true, act: click},
		{name: "choose provider", loc: loc.ProviderButton, act: click},
		{name: "await login form", loc: loc.UsernameInput, wait: true},
		{name: "type username", loc: loc.UsernameInput, act: typeText(cred.Username)},
		{name: "type password", loc: loc.PasswordInput, act: typeText(cred.Password)},
		{name: "type utility code", loc: loc.UtilityCodeInput, act: typeText(cred.UtilityCode)},
		{name: "submit", loc: loc.SubmitButton, act: click},
	}
}

// Login navigates to the portal and runs the fixed login sequence. enter is
// called with NAVIGATING and then with LoginStep(i) before each step.
// The first failing step aborts the flow.
func Login(ctx context.Context, session chrome.Session, p param.Scrape, enter func(State)) error {
	enter(StateNavigating)
	if err := session.Navigate(ctx, p.LoginURL); err != nil {
		return fmt.Errorf("%w: navigate to %s: %w", ErrInteraction, p.LoginURL, err)
	}

	missed := false
	for i, step := range loginSteps(p) {
		enter(LoginStep(i + 1))
		if step.wait && !WaitForPresence(ctx, session, step.loc, p.ElementTimeout) {
			missed = true
		}
		if step.act == nil {
			continue
		}
		if err := step.act(ctx, session, step.loc); err != nil {
			return stepError(step.name, missed, err)
		}
		missed = false
	}
	return nil
}

func stepError(name string, missed bool, err error) error {
	if missed {
		return fmt.Errorf("%w: %s: %w: %w", ErrInteraction, name, ErrElementTimeout, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrInteraction, name, err)
}
