package scenario

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuiltInCatalog(t *testing.T) {
	catalog := BuiltIn()
	require.Len(t, catalog, 6)

	seen := map[string]bool{}
	for _, sc := range catalog {
		assert.False(t, seen[sc.ID], "duplicate scenario id %s", sc.ID)
		seen[sc.ID] = true
		assert.NotEmpty(t, sc.Messages, "scenario %s has no messages", sc.ID)
		last := int64(-1)
		maxRisk := 0
		for _, m := range sc.Messages {
			assert.GreaterOrEqual(t, m.TimestampMs, last, "scenario %s timestamps must be non-decreasing", sc.ID)
			last = m.TimestampMs
			if m.Risk > maxRisk {
				maxRisk = m.Risk
			}
		}
		assert.Equal(t, sc.MaxRisk, maxRisk, "scenario %s max risk mismatch", sc.ID)
	}
}

func TestPickRandomPrefersLanguage(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	catalog := BuiltIn()

	for i := 0; i < 50; i++ {
		sc, ok := PickRandom(rng, catalog, "fr")
		require.True(t, ok)
		assert.Equal(t, "fr", sc.Language)
	}
}

func TestPickRandomFallsBackToFullCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	catalog := BuiltIn()

	sc, ok := PickRandom(rng, catalog, "de")
	require.True(t, ok)
	assert.NotEmpty(t, sc.ID)
}

func TestPickRandomEmptyCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, ok := PickRandom(rng, nil, "en")
	assert.False(t, ok)
}

func TestLoadSpreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Scenario", "Title", "Language", "Speaker", "Text", "Risk", "TimestampMs", "Analysis"},
		{"test_call", "Test Call", "en", "Caller", "hello", 10, 0, "greeting"},
		{"test_call", "Test Call", "en", "User", "who is this", 5, 2000, ""},
		{"other_call", "Other", "es", "Caller", "hola", 20, 0, ""},
		{"", "", "", "", "skipped row", 0, 0, ""},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	require.NoError(t, f.SaveAs(path))

	catalog, err := Load(path)
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	first := catalog[0]
	assert.Equal(t, "test_call", first.ID)
	assert.Equal(t, "en", first.Language)
	require.Len(t, first.Messages, 2)
	assert.Equal(t, int64(2000), first.Messages[1].TimestampMs)
	assert.Equal(t, 10, first.MaxRisk)
	assert.Equal(t, int64(4000), first.DurationMs)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
