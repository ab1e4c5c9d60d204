package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awstatus/internal/feed"
	"awstatus/internal/observability"
)

type stubFetcher struct {
	status    *feed.StatusFeed
	statusErr error
}

func (f *stubFetcher) FetchStatus(ctx context.Context) (*feed.StatusFeed, error) {
	return f.status, f.statusErr
}

func (f *stubFetcher) FetchServices(ctx context.Context) ([]feed.ServiceEntry, error) {
	return nil, fmt.Errorf("not used")
}

var refreshTime = time.Date(2021, 7, 21, 0, 0, 0, 0, time.UTC)

func rawIssue(service, name, summary string, ts int64) feed.RawIssue {
	return feed.RawIssue{
		Service:     service,
		ServiceName: name,
		Summary:     summary,
		Date:        feed.UnixSeconds(ts),
		Description: "<p>No incident updates.</p>",
	}
}

func testFeed() *feed.StatusFeed {
	return &feed.StatusFeed{
		Current: []feed.RawIssue{
			rawIssue("lambda-eu-west-1", "AWS Lambda (EU-WEST-1)", "Errors", refreshTime.Unix()-3600),
		},
		Archive: []feed.RawIssue{
			rawIssue("ec2-us-east-1", "Amazon EC2 (US-EAST-1)", "Connectivity", refreshTime.Unix()-5*86400),
			rawIssue("s3", "Amazon S3", "Latency", refreshTime.Unix()-10*86400),
		},
	}
}

func TestStore_Refresh(t *testing.T) {
	st := New(&stubFetcher{status: testFeed()}, nil,
		WithClock(clockwork.NewFakeClockAt(refreshTime)))
	require.NoError(t, st.Refresh(context.Background()))

	result := st.Query("", "")
	require.Len(t, result.Current, 1)
	require.Len(t, result.Archived, 2)
	assert.Equal(t, "lambda", result.Current[0].ServiceCode)
	assert.Equal(t, "eu-west-1", result.Current[0].RegionCode)

	// Oldest archived issue is ten days back from the refresh instant.
	assert.Equal(t, 10, st.ArchiveSpanDays())
}

func TestStore_ArchiveSpanTruncates(t *testing.T) {
	fetcher := &stubFetcher{status: &feed.StatusFeed{
		Archive: []feed.RawIssue{
			rawIssue("s3", "Amazon S3", "Latency", refreshTime.Unix()-10*86400-43200),
		},
	}}
	st := New(fetcher, nil, WithClock(clockwork.NewFakeClockAt(refreshTime)))
	require.NoError(t, st.Refresh(context.Background()))

	// 10.5 days truncates to 10.
	assert.Equal(t, 10, st.ArchiveSpanDays())
}

// A failed fetch must leave the previous snapshot untouched.
func TestStore_FetchFailureKeepsPrevious(t *testing.T) {
	fetcher := &stubFetcher{status: testFeed()}
	st := New(fetcher, nil, WithClock(clockwork.NewFakeClockAt(refreshTime)))
	require.NoError(t, st.Refresh(context.Background()))

	fetcher.status = nil
	fetcher.statusErr = &feed.FetchError{URL: "http://example.com/data.json", Err: fmt.Errorf("remote down")}
	require.Error(t, st.Refresh(context.Background()))

	result := st.Query("", "")
	assert.Len(t, result.Current, 1)
	assert.Len(t, result.Archived, 2)
	assert.Equal(t, 10, st.ArchiveSpanDays())
}

// One record with a malformed composite identifier aborts the whole
// refresh, and the previous snapshot keeps serving.
func TestStore_BadRecordAbortsRefresh(t *testing.T) {
	fetcher := &stubFetcher{status: testFeed()}
	st := New(fetcher, nil, WithClock(clockwork.NewFakeClockAt(refreshTime)))
	require.NoError(t, st.Refresh(context.Background()))

	bad := testFeed()
	bad.Current = append(bad.Current, rawIssue("Not-An-Identifier", "Broken", "", refreshTime.Unix()))
	bad.Archive = nil
	fetcher.status = bad

	err := st.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not-An-Identifier")

	result := st.Query("", "")
	assert.Len(t, result.Current, 1)
	assert.Len(t, result.Archived, 2)
}

func TestStore_RefreshMetrics(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	st := New(&stubFetcher{status: testFeed()}, nil,
		WithClock(clockwork.NewFakeClockAt(refreshTime)),
		WithMetrics(metrics))
	require.NoError(t, st.Refresh(context.Background()))
}

func TestStore_QueryBeforeRefreshIsEmpty(t *testing.T) {
	st := New(&stubFetcher{}, nil)

	result := st.Query("", "")
	assert.Empty(t, result.Current)
	assert.Empty(t, result.Archived)
	assert.Equal(t, 0, st.ArchiveSpanDays())
}
