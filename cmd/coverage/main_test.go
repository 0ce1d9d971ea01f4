package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/manseryeok-api/internal/database"
)

// seedDB writes records to a fresh database file and returns its path.
func seedDB(t *testing.T, recs ...*database.CrossReferenceRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")

	db, err := database.Open(database.DefaultConfig(path), nil)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, db.UpsertCrossReference(ctx, rec))
	}
	return path
}

func TestRun_AllAgree(t *testing.T) {
	path := seedDB(t,
		&database.CrossReferenceRecord{SolarDate: "1990-01-27", LunarYear: 1990, LunarMonth: 1, LunarDay: 1, DayGanji: "임진(壬辰)", SourceName: "test"},
	)
	out := filepath.Join(t.TempDir(), "audit.json")

	var buf bytes.Buffer
	code, err := run(&buf, path, 1990, 1, false, out)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, buf.String(), "Cached:         1 (0.3%)")
	assert.Contains(t, buf.String(), "No disagreements.")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var saved struct {
		Coverage string `json:"coverage"`
		Report   struct {
			Cached int `json:"cached"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, 1, saved.Report.Cached)
	assert.Equal(t, "0.27%", saved.Coverage)
}

func TestRun_Disagreement(t *testing.T) {
	path := seedDB(t,
		&database.CrossReferenceRecord{SolarDate: "1990-01-27", LunarYear: 1990, LunarMonth: 1, LunarDay: 1, DayGanji: "무진(戊辰)", SourceName: "test"},
	)

	var buf bytes.Buffer
	code, err := run(&buf, path, 1990, 2, false, "")
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "1990-01-27: table 1990-01-01 임진(壬辰), KASI 1990-01-01 무진(戊辰)")
	assert.Contains(t, buf.String(), "✗ 1990: 1/365 days cached, 1 disagree")
	assert.Contains(t, buf.String(), "· 1991: 0/365 days cached, 0 disagree")
}

func TestRun_BadYears(t *testing.T) {
	_, err := run(&bytes.Buffer{}, filepath.Join(t.TempDir(), "x.db"), 1990, 0, false, "")
	assert.Error(t, err)
}
