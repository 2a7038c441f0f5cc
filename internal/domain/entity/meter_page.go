package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/domain/model"
	"github.com/shopspring/decimal"
)

// ErrParse is returned when page text does not have the expected shape.
var ErrParse = errors.New("parse failure")

// The portal writes the reading time either as "kl. 18:58, d. 07-10-2024" or "kl. 18.58, d. 07.10.2024".
var timestampLayouts = []string{
	"kl. 15:04, d. 02-01-2006",
	"kl. 15.04, d. 02.01.2006",
}

// MeterPage holds the raw texts read from the reading page, before parsing.
type MeterPage struct {
	TotalText     string
	MeterText     string
	TimestampText string
}

// ToReading parses all three fields. A reading is only returned when every
// field parsed; otherwise the error wraps ErrParse.
func (p MeterPage) ToReading() (model.Reading, error) {
	total, err := ParseTotal(p.TotalText)
	if err != nil {
		return model.Reading{}, err
	}
	meterID, err := ParseMeterID(p.MeterText)
	if err != nil {
		return model.Reading{}, err
	}
	ts, err := ParseTimestamp(p.TimestampText)
	if err != nil {
		return model.Reading{}, err
	}
	return model.Reading{
		Total:     total,
		MeterID:   meterID,
		Timestamp: ts,
	}, nil
}

// ParseTotal parses a comma-decimal usage value such as "234,32".
func ParseTotal(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if s == "" {
		return 0, fmt.Errorf("%w: empty total", ErrParse)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: total %q: %v", ErrParse, text, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative total %q", ErrParse, text)
	}
	return d.InexactFloat64(), nil
}

// ParseMeterID parses the digit-only meter identifier.
func ParseMeterID(text string) (int64, error) {
	s := strings.TrimSpace(text)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: meter id %q: %v", ErrParse, text, err)
	}
	return id, nil
}

// ParseTimestamp reformats the portal's natural-language timestamp to
// model.TimestampLayout.
func ParseTimestamp(text string) (string, error) {
	s := strings.TrimSpace(text)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.Format(model.TimestampLayout), nil
		}
	}
	return "", fmt.Errorf("%w: timestamp %q matches no known pattern", ErrParse, text)
}
