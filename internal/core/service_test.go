package core

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
)

func newTestService(t *testing.T) (*Service, *metrics.Collector) {
	t.Helper()
	m := metrics.NewCollector("test")
	store := NewStore([]Binding{
		{Definition: testDefinition("stats"), Fetcher: &countingFetcher{name: "lithium.csv", data: lithiumCSV}},
		{Definition: depositDefinition("sites"), Fetcher: &countingFetcher{name: "sites.csv", data: depositCSV}},
	}, WithMetrics(m))
	return NewService(store, nil, m), m
}

func TestService_Commodities(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	list, err := svc.Commodities(ctx, "stats", false)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, []string{"Lithium"}, list.Commodities)
	assert.Nil(t, list.Categories)

	list, err = svc.Commodities(ctx, "stats", true)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"battery": {"Lithium"}}, list.Categories)
}

func TestService_Ranking(t *testing.T) {
	svc, m := newTestService(t)

	res, err := svc.Ranking(context.Background(), "stats", RankingQuery{Commodity: "Lithium", TopN: 2})
	require.NoError(t, err)
	assert.Equal(t, 2022, res.Year)
	assert.Equal(t, 100000.0, res.TotalQuantity)
	require.Len(t, res.Rankings, 2)
	assert.Equal(t, 61.0, res.Rankings[0].SharePercent)

	assert.Equal(t, 1, testutil.CollectAndCount(m.QueryDuration, "test_query_duration_seconds"))
}

func TestService_CountriesAndRecords(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	countries, err := svc.Countries(ctx, "stats", "lithium")
	require.NoError(t, err)
	assert.Equal(t, []string{"Australia", "Chile", "World total"}, countries.Countries)

	records, err := svc.Records(ctx, "stats", RecordsQuery{Country: "Chile"})
	require.NoError(t, err)
	assert.Equal(t, 1, records.Total)
}

func TestService_TimeSeriesCompareProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ts, err := svc.TimeSeries(ctx, "stats", TimeSeriesQuery{Commodity: "Lithium", Country: "Chile"})
	require.NoError(t, err)
	require.Len(t, ts.Series, 1)

	cmp, err := svc.Compare(ctx, "stats", CompareQuery{Commodity: "Lithium", Countries: "Chile,Australia"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chile", "Australia"}, cmp.Order)

	_, err = svc.Compare(ctx, "stats", CompareQuery{Commodity: "Lithium", Countries: "Atlantis"})
	assert.True(t, errors.Is(err, ErrNoData))

	profile, err := svc.Profile(ctx, "stats", ProfileQuery{Country: "Australia"})
	require.NoError(t, err)
	assert.Equal(t, 2022, profile.Year)
	require.Len(t, profile.Commodities, 1)
}

func TestService_SearchDeposits(t *testing.T) {
	svc, _ := newTestService(t)

	list, err := svc.SearchDeposits(context.Background(), "sites", DepositQuery{Commodity: "lithium", Country: "Chile"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Salar de Atacama", list.Deposits[0].Name)
}

func TestService_FindDeposits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	list, err := svc.FindDeposits(ctx, "sites", DepositQuery{Commodity: "silver, lithium"})
	require.NoError(t, err)
	assert.False(t, list.CommodityIgnored)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Broken Hill", list.Deposits[0].Name)

	list, err = svc.FindDeposits(ctx, "sites", DepositQuery{Commodity: "unobtainium", Country: "Chile"})
	require.NoError(t, err)
	assert.True(t, list.CommodityIgnored)
	assert.Equal(t, 1, list.Total)

	_, err = svc.FindDeposits(ctx, "stats", DepositQuery{Commodity: "gold"})
	assert.True(t, errors.Is(err, ErrUnknownSource))
}

func TestService_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ranking(ctx, "nope", RankingQuery{Commodity: "Lithium"})
	assert.True(t, errors.Is(err, ErrUnknownSource))
	assert.Equal(t, "SRC002", MapError(err).Code)

	_, err = svc.SearchDeposits(ctx, "stats", DepositQuery{})
	assert.True(t, errors.Is(err, ErrUnknownSource))
}
