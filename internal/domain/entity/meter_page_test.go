package entity

import (
	"testing"

	"github.com/LouYuanbo1/mvfscraper/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func TestParseTotal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"234,32", 234.32},
		{" 0,5 ", 0.5},
		{"17", 17},
		{"1234,001", 1234.001},
	}
	for _, tc := range cases {
		got, err := ParseTotal(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseTotalRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "12,3,4", "-1,5", "1.234,56"} {
		_, err := ParseTotal(in)
		require.ErrorIs(t, err, ErrParse, in)
	}
}

func TestParseMeterID(t *testing.T) {
	got, err := ParseMeterID("23522852")
	require.NoError(t, err)
	require.Equal(t, int64(23522852), got)

	_, err = ParseMeterID("2352a852")
	require.ErrorIs(t, err, ErrParse)
	_, err = ParseMeterID("")
	require.ErrorIs(t, err, ErrParse)
}

func TestParseTimestamp(t *testing.T) {
	for _, in := range []string{
		"kl. 18.58, d. 07.10.2024",
		"kl. 18:58, d. 07-10-2024",
		"  kl. 18:58, d. 07-10-2024\n",
	} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		require.Equal(t, "2024-10-07 18:58:00", got, in)
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"18:58 07-10-2024",
		"kl. 18:58, d. 07.10.2024",
		"kl. 25:00, d. 07-10-2024",
		"kl. 18.58, d. 32.10.2024",
	} {
		_, err := ParseTimestamp(in)
		require.ErrorIs(t, err, ErrParse, in)
	}
}

func TestMeterPageToReading(t *testing.T) {
	page := MeterPage{
		TotalText:     "234,32",
		MeterText:     "23522852",
		TimestampText: "kl. 18.58, d. 07.10.2024",
	}
	reading, err := page.ToReading()
	require.NoError(t, err)
	require.Equal(t, model.Reading{Total: 234.32, MeterID: 23522852, Timestamp: "2024-10-07 18:58:00"}, reading)

	payload, err := reading.Payload()
	require.NoError(t, err)
	require.Equal(t, `{"total":234.32,"meter_id":23522852,"timestamp":"2024-10-07 18:58:00"}`, string(payload))
}

func TestMeterPageToReadingPartial(t *testing.T) {
	page := MeterPage{TotalText: "234,32", MeterText: "23522852", TimestampText: "yesterday"}
	reading, err := page.ToReading()
	require.ErrorIs(t, err, ErrParse)
	require.Equal(t, model.Reading{}, reading)
}
