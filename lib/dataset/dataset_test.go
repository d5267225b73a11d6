package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTemplate(t *testing.T) {
	doc := DefaultTemplate()
	require.NotNil(t, doc.CaseTotals.AgeGroup)
	require.Empty(t, doc.CaseTotals.AgeGroup)
	require.NotNil(t, doc.DeathTotals.UnderlyingCond)
	require.Equal(t, []SeriesPoint{}, doc.Series)
}

func TestWithDoesNotMutate(t *testing.T) {
	base := DefaultTemplate()

	cases := map[string]int{"Age_LT20": 3}
	filled := base.
		WithSource("San Mateo County", "https://example.com", "2020-04-02T00:00:00Z").
		WithAgeGroups(cases, map[string]int{"Death_Age_LT20": 0}).
		WithSeries([]SeriesPoint{{Date: "2020-04-01", Cases: 5, CumulCases: 5}})

	require.Empty(t, base.Name)
	require.Empty(t, base.CaseTotals.AgeGroup)
	require.Empty(t, base.Series)

	require.Equal(t, "San Mateo County", filled.Name)
	require.Equal(t, 3, filled.CaseTotals.AgeGroup["Age_LT20"])
	require.Len(t, filled.Series, 1)

	// the document keeps its own copy of the inputs
	cases["Age_LT20"] = 100
	require.Equal(t, 3, filled.CaseTotals.AgeGroup["Age_LT20"])
}

func TestJSONShape(t *testing.T) {
	doc := DefaultTemplate().WithSeries([]SeriesPoint{{Date: "2020-04-01", Cases: 5, CumulCases: 5}})
	contents, err := doc.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(contents, &decoded))
	require.Contains(t, decoded["case_totals"], "age_group")
	require.Contains(t, decoded["death_totals"], "age_group")
	require.Contains(t, decoded["death_totals"], "underlying_cond")
	require.NotContains(t, decoded["case_totals"], "underlying_cond")
	series := decoded["series"].([]any)
	require.Equal(t, map[string]any{"date": "2020-04-01", "cases": 5.0, "cumul_cases": 5.0}, series[0])
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_model.json")
	err := os.WriteFile(path, []byte(`{"name": "", "meta_from_baypd": "scraped nightly", "case_totals": {"age_group": {}}}`), 0o600)
	require.NoError(t, err)

	doc, err := LoadTemplate(path)
	require.NoError(t, err)
	require.Equal(t, "scraped nightly", doc.MetaFromBaypd)
	require.Equal(t, []SeriesPoint{}, doc.Series)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
