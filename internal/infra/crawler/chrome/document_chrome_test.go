package chrome

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/types"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) Session {
	t.Helper()
	f, err := os.Open("testdata/reading_page.html")
	require.NoError(t, err)
	defer f.Close()

	s, err := OpenDocument(f)
	require.NoError(t, err)
	return s
}

func TestDocumentSessionXPath(t *testing.T) {
	s := openFixture(t)
	ctx := context.Background()

	cases := map[string]string{
		"//b":            "23522852",
		"//span[2]/b":    "kl. 18.58, d. 07.10.2024",
		"//span[2]/b[2]": "234,32",
	}
	for expr, want := range cases {
		got, err := s.Text(ctx, types.XPath(expr))
		require.NoError(t, err, expr)
		require.Equal(t, want, got, expr)
	}

	ok, err := s.Present(ctx, types.XPath("(//input[@type='text'])[2]"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Present(ctx, types.XPath("//table"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDocumentSessionCSSAndID(t *testing.T) {
	s := openFixture(t)
	ctx := context.Background()

	got, err := s.Text(ctx, types.CSS(".reading span:nth-of-type(2) b:nth-of-type(2)"))
	require.NoError(t, err)
	require.Equal(t, "234,32", got)

	ok, err := s.Present(ctx, types.ID("app"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDocumentSessionMissingElement(t *testing.T) {
	s := openFixture(t)

	_, err := s.Text(context.Background(), types.XPath("//span[3]/b"))
	require.ErrorIs(t, err, ErrElementNotFound)
}

func TestDocumentSessionIsReadOnly(t *testing.T) {
	s, err := OpenDocument(strings.NewReader("<html><body><button>ok</button></body></html>"))
	require.NoError(t, err)
	ctx := context.Background()

	require.ErrorIs(t, s.Navigate(ctx, "https://example.com"), ErrReadOnly)
	require.ErrorIs(t, s.Click(ctx, types.XPath("//button")), ErrReadOnly)
	require.ErrorIs(t, s.SendKeys(ctx, types.XPath("//button"), "x"), ErrReadOnly)
	require.NoError(t, s.Close())
}

func TestDocumentSessionInvalidXPath(t *testing.T) {
	s := openFixture(t)

	_, err := s.Present(context.Background(), types.XPath("//span[["))
	require.Error(t, err)
}

func TestInitOpener(t *testing.T) {
	_, err := InitOpener(DriverChromedp, Options{})
	require.Error(t, err)

	_, err = InitOpener("selenium", Options{Endpoint: "http://localhost:4444"})
	require.Error(t, err)

	o, err := InitOpener("", Options{Endpoint: "ws://localhost:9222"})
	require.NoError(t, err)
	require.IsType(t, &chromedpOpener{}, o)

	o, err = InitOpener(DriverRod, Options{Endpoint: "ws://localhost:9222"})
	require.NoError(t, err)
	require.IsType(t, &rodOpener{}, o)
}
