package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"covid19-scrapers/lib/dataset"
	"covid19-scrapers/lib/testutil"

	"github.com/stretchr/testify/require"
)

func testDocument(updateTime string, lt20 int) dataset.Document {
	return dataset.DefaultTemplate().
		WithSource("San Mateo County", "https://example.com/landing", updateTime).
		WithAgeGroups(
			map[string]int{"Age_LT20": lt20, "Age_20_29": 196},
			map[string]int{"Death_Age_LT20": 0, "Death_Age_20_29": 1},
		).
		WithSeries([]dataset.SeriesPoint{
			{Date: "2020-03-29", Cases: 52, CumulCases: 593},
			{Date: "2020-03-28", Cases: 41, CumulCases: 541},
		})
}

func TestStore(t *testing.T) {
	res := testutil.Setup(t, testutil.Params{Name: "store", DbSchema: Schema})
	store := NewStore(res.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := store.LatestRun(ctx, "San Mateo County")
	require.ErrorIs(t, err, ErrNoRuns)

	first, err := store.SaveRun(ctx, testDocument("2020-04-05T09:00:00-07:00", 50))
	require.NoError(t, err)
	require.Len(t, first, 16)

	second, err := store.SaveRun(ctx, testDocument("2020-04-06T09:00:00-07:00", 58))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	latest, err := store.LatestRun(ctx, "San Mateo County")
	require.NoError(t, err)
	require.Equal(t, second, latest.Id)
	require.Equal(t, "https://example.com/landing", latest.SourceUrl)
	require.True(t, latest.ScrapedAt.Equal(time.Date(2020, time.April, 6, 16, 0, 0, 0, time.UTC)))
	require.Equal(t, testDocument("2020-04-06T09:00:00-07:00", 58), latest.Document)

	cases, err := store.AgeCounts(ctx, second, KindCases)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"Age_LT20": 58, "Age_20_29": 196}, cases)

	deaths, err := store.AgeCounts(ctx, first, KindDeaths)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"Death_Age_LT20": 0, "Death_Age_20_29": 1}, deaths)

	series, err := store.Series(ctx, first)
	require.NoError(t, err)
	require.Equal(t, []dataset.SeriesPoint{
		{Date: "2020-03-28", Cases: 41, CumulCases: 541},
		{Date: "2020-03-29", Cases: 52, CumulCases: 593},
	}, series)

	_, err = store.LatestRun(ctx, "Alameda County")
	require.ErrorIs(t, err, ErrNoRuns)
}

func TestSaveRunInvalidUpdateTime(t *testing.T) {
	res := testutil.Setup(t, testutil.Params{Name: "store", DbSchema: Schema})
	store := NewStore(res.DB)

	_, err := store.SaveRun(context.Background(), testDocument("yesterday", 1))
	require.Error(t, err)

	_, err = store.LatestRun(context.Background(), "San Mateo County")
	require.ErrorIs(t, err, ErrNoRuns)
}

func TestOpenDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	db, err := OpenDB(path)
	require.NoError(t, err)

	_, err = NewStore(db).SaveRun(context.Background(), testDocument("2020-04-06T09:00:00-07:00", 58))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopening applies the schema again without touching existing runs
	db, err = OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	run, err := NewStore(db).LatestRun(context.Background(), "San Mateo County")
	require.NoError(t, err)
	require.Equal(t, 58, run.Document.CaseTotals.AgeGroup["Age_LT20"])
}
