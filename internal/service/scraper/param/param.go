package param

import (
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/domain/model"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
)

const (
	DefaultLoginURL       = "https://www.minvandforsyning.dk/LoginIntermediate"
	DefaultElementTimeout = 10 * time.Second
)

// Locators maps each logical portal field to its locator; flow code only uses the field names.
type Locators struct {
	ConsentButton    types.Locator `json:"consent_button"`
	ProviderButton   types.Locator `json:"provider_button"`
	UsernameInput    types.Locator `json:"username_input"`
	PasswordInput    types.Locator `json:"password_input"`
	UtilityCodeInput types.Locator `json:"utility_code_input"`
	SubmitButton     types.Locator `json:"submit_button"`
	ReadingTotal     types.Locator `json:"reading_total"`
	MeterID          types.Locator `json:"meter_id"`
	ReadingTimestamp types.Locator `json:"reading_timestamp"`
}

func DefaultLocators() Locators {
	return Locators{
		ConsentButton:    types.XPath("//div[3]/button"),
		ProviderButton:   types.XPath("//div[@id='LoginIntermediaryMudPaper']/div/div/button"),
		UsernameInput:    types.XPath("//input[@type='text']"),
		PasswordInput:    types.XPath("//input[@type='password']"),
		UtilityCodeInput: types.XPath("(//input[@type='text'])[2]"),
		SubmitButton:     types.XPath("//form/button"),
		ReadingTotal:     types.XPath("//span[2]/b[2]"),
		MeterID:          types.XPath("//b"),
		ReadingTimestamp: types.XPath("//span[2]/b"),
	}
}

// Scrape holds the parameters of one scrape attempt.
type Scrape struct {
	LoginURL       string            `json:"login_url"`
	Credentials    model.Credentials `json:"credentials"`
	Locators       Locators          `json:"locators"`
	ElementTimeout time.Duration     `json:"element_timeout"`
}

// WithDefaults fills empty fields. Credentials are left as given.
func (s Scrape) WithDefaults() Scrape {
	if s.LoginURL == "" {
		s.LoginURL = DefaultLoginURL
	}
	if s.Locators == (Locators{}) {
		s.Locators = DefaultLocators()
	}
	if s.ElementTimeout <= 0 {
		s.ElementTimeout = DefaultElementTimeout
	}
	return s
}
