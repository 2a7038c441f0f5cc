package model

import "encoding/json"

// TimestampLayout is the canonical timestamp format carried in a published reading.
const TimestampLayout = "2006-01-02 15:04:05"

// Reading is one water-usage data point scraped from the portal.
type Reading struct {
	Total     float64 `json:"total"`
	MeterID   int64   `json:"meter_id"`
	Timestamp string  `json:"timestamp"`
}

// Payload returns the compact JSON form published to the broker.
func (r Reading) Payload() ([]byte, error) {
	return json.Marshal(r)
}
