package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"awstatus/internal/catalog"
	"awstatus/internal/feed"
	"awstatus/internal/store"
)

type countingFetcher struct {
	statusCalls  atomic.Int64
	serviceCalls atomic.Int64
	statusErr    error
}

func (f *countingFetcher) FetchStatus(ctx context.Context) (*feed.StatusFeed, error) {
	f.statusCalls.Add(1)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &feed.StatusFeed{
		Current: []feed.RawIssue{{
			Service:     "lambda-eu-west-1",
			ServiceName: "AWS Lambda (EU-WEST-1)",
			Description: "<p>No incident updates.</p>",
		}},
	}, nil
}

func (f *countingFetcher) FetchServices(ctx context.Context) ([]feed.ServiceEntry, error) {
	f.serviceCalls.Add(1)
	return []feed.ServiceEntry{
		{ServiceName: "AWS Lambda", Service: "lambda-eu-west-1", RegionID: "eu-west-1", RegionName: "EU (Ireland)"},
	}, nil
}

// TestRefresher_RunsFirstCycleImmediately verifies that starting the
// refresher populates both the catalog and the store without waiting
// for the first tick.
func TestRefresher_RunsFirstCycleImmediately(t *testing.T) {
	fetcher := &countingFetcher{}
	cat := catalog.New(fetcher)
	st := store.New(fetcher, zap.NewNop())

	r := NewRefresher(st, cat, zap.NewNop(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Start(ctx)

	// Give it time to run exactly one cycle.
	time.Sleep(100 * time.Millisecond)
	cancel()

	assert.Equal(t, int64(1), fetcher.statusCalls.Load())
	assert.Equal(t, int64(1), fetcher.serviceCalls.Load())
	assert.True(t, cat.HasService("lambda"))
	require.Len(t, st.Query("", "").Current, 1)
}

// A failing cycle logs and keeps looping rather than tearing down.
func TestRefresher_FailureKeepsRunning(t *testing.T) {
	fetcher := &countingFetcher{statusErr: fmt.Errorf("remote down")}
	cat := catalog.New(fetcher)
	st := store.New(fetcher, zap.NewNop())

	r := NewRefresher(st, cat, zap.NewNop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()

	assert.GreaterOrEqual(t, fetcher.statusCalls.Load(), int64(2))
	assert.Empty(t, st.Query("", "").Current)
}
