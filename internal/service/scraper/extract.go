package scraper

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/mvfscraper/internal/domain/entity"
	"github.com/LouYuanbo1/mvfscraper/internal/domain/model"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper/param"
)

// ExtractReading waits for the reading to render and parses the three fields.
// Nothing partial is returned: any missing field or bad text wraps ErrParse.
func ExtractReading(ctx context.Context, session chrome.Session, p param.Scrape) (model.Reading, error) {
	loc := p.Locators
	missed := !WaitForPresence(ctx, session, loc.ReadingTotal, p.ElementTimeout)

	read := func(field string, l types.Locator) (string, error) {
		text, err := session.Text(ctx, l)
		if err == nil {
			return text, nil
		}
		if missed {
			return "", fmt.Errorf("%w: read %s: %w: %w", ErrParse, field, ErrElementTimeout, err)
		}
		return "", fmt.Errorf("%w: read %s: %w", ErrParse, field, err)
	}

	var page entity.MeterPage
	var err error
	if page.TotalText, err = read("total", loc.ReadingTotal); err != nil {
		return model.Reading{}, err
	}
	if page.MeterText, err = read("meter id", loc.MeterID); err != nil {
		return model.Reading{}, err
	}
	if page.TimestampText, err = read("timestamp", loc.ReadingTimestamp); err != nil {
		return model.Reading{}, err
	}
	return page.ToReading()
}
