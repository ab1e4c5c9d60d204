package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awstatus/internal/feed"
)

type stubFetcher struct {
	services    []feed.ServiceEntry
	servicesErr error
}

func (f *stubFetcher) FetchStatus(ctx context.Context) (*feed.StatusFeed, error) {
	return nil, fmt.Errorf("not used")
}

func (f *stubFetcher) FetchServices(ctx context.Context) ([]feed.ServiceEntry, error) {
	return f.services, f.servicesErr
}

func testEntries() []feed.ServiceEntry {
	return []feed.ServiceEntry{
		{ServiceName: "AWS Lambda", Service: "lambda-us-east-1", RegionID: "us-east-1", RegionName: "US East (N. Virginia)"},
		{ServiceName: "Amazon S3", Service: "s3-eu-west-1", RegionID: "eu-west-1", RegionName: "EU (Ireland)"},
		{ServiceName: "Amazon EC2", Service: "ec2"},
	}
}

func TestCatalog_Lookups(t *testing.T) {
	cat := New(&stubFetcher{services: testEntries()})
	require.NoError(t, cat.Refresh(context.Background()))

	// Friendly names and codes both resolve, case-insensitively.
	assert.True(t, cat.HasService("AWS Lambda"))
	assert.True(t, cat.HasService("aws lambda"))
	assert.True(t, cat.HasService("LAMBDA"))
	assert.False(t, cat.HasService("dynamodb"))

	code, err := cat.ServiceCode("AWS Lambda")
	require.NoError(t, err)
	assert.Equal(t, "lambda", code)

	code, err = cat.ServiceCode("lambda")
	require.NoError(t, err)
	assert.Equal(t, "lambda", code)

	assert.True(t, cat.HasRegion("EU (Ireland)"))
	assert.True(t, cat.HasRegion("eu-west-1"))
	assert.False(t, cat.HasRegion("ap-south-1"))

	region, err := cat.RegionCode("US East (N. Virginia)")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", region)
}

func TestCatalog_UnknownLookupsFail(t *testing.T) {
	cat := New(&stubFetcher{services: testEntries()})
	require.NoError(t, cat.Refresh(context.Background()))

	_, err := cat.ServiceCode("dynamodb")
	require.ErrorIs(t, err, ErrUnknownService)
	assert.Contains(t, err.Error(), "dynamodb")

	_, err = cat.RegionCode("ap-south-1")
	require.ErrorIs(t, err, ErrUnknownRegion)
}

func TestCatalog_Listings(t *testing.T) {
	cat := New(&stubFetcher{services: testEntries()})
	require.NoError(t, cat.Refresh(context.Background()))

	services := cat.Services()
	require.Len(t, services, 3)
	// Sorted by friendly name.
	assert.Equal(t, "AWS Lambda", services[0].Name)
	assert.Equal(t, "Amazon EC2", services[1].Name)
	assert.Equal(t, "Amazon S3", services[2].Name)

	regions := cat.Regions()
	require.Len(t, regions, 2)
	assert.Equal(t, "EU (Ireland)", regions[0].Name)
	assert.Equal(t, "eu-west-1", regions[0].Code)
}

// A refresh discards the previous tables entirely before repopulating.
func TestCatalog_RefreshReplacesWholesale(t *testing.T) {
	fetcher := &stubFetcher{services: testEntries()}
	cat := New(fetcher)
	require.NoError(t, cat.Refresh(context.Background()))
	require.True(t, cat.HasService("AWS Lambda"))

	fetcher.services = []feed.ServiceEntry{
		{ServiceName: "Amazon DynamoDB", Service: "dynamodb-us-west-2", RegionID: "us-west-2", RegionName: "US West (Oregon)"},
	}
	require.NoError(t, cat.Refresh(context.Background()))

	assert.False(t, cat.HasService("AWS Lambda"))
	assert.True(t, cat.HasService("dynamodb"))
	assert.False(t, cat.HasRegion("eu-west-1"))
}

// A failed fetch leaves the previous tables in place.
func TestCatalog_RefreshFailureKeepsPrevious(t *testing.T) {
	fetcher := &stubFetcher{services: testEntries()}
	cat := New(fetcher)
	require.NoError(t, cat.Refresh(context.Background()))

	fetcher.servicesErr = fmt.Errorf("remote down")
	require.Error(t, cat.Refresh(context.Background()))

	assert.True(t, cat.HasService("AWS Lambda"))
}
