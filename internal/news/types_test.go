package news

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCrawlDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: "20241027"},
		{name: "too short", raw: "2024102", wantErr: true},
		{name: "too long", raw: "202410270", wantErr: true},
		{name: "dashed", raw: "2024-10-2", wantErr: true},
		{name: "full width digit", raw: "2024102７", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCrawlDate(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			require.Equal(t, CrawlDate(tt.raw), got)
		})
	}
}

func TestCrawlDateHelpers(t *testing.T) {
	t.Parallel()

	d := CrawlDate("20241027")
	require.Equal(t, "2024-10-27", d.Dashed())

	loc := time.FixedZone("CST", 8*3600)
	tm, err := d.Time(loc)
	require.NoError(t, err)
	require.Equal(t, d, DateOf(tm))

	_, err = CrawlDate("20241399").Time(loc)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestErrorsUnwrap(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	fetchErr := &FetchError{URL: "http://x", StatusCode: 404, Err: base}
	require.ErrorIs(t, fetchErr, base)
	require.Contains(t, fetchErr.Error(), "status 404")

	extractErr := &ExtractionError{URL: "http://x", Reason: "empty result"}
	require.ErrorIs(t, extractErr, ErrEmptyResult)

	failed := FailedArticle("http://x/a", base)
	require.False(t, failed.OK())
	require.Equal(t, FailedTitle, failed.Record.Title)
	require.Equal(t, FailedContent, failed.Record.Content)
}
