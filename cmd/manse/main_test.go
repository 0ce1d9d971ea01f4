package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/manseryeok-api/internal/database"
	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

// execute runs the CLI with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestChart_Text(t *testing.T) {
	out, err := execute(t, "chart", "--date", "1990-01-27", "--time", "12:00")
	require.NoError(t, err)

	for _, want := range []string{"기사", "정축", "임진", "병오", "己巳", "slightly_imbalanced", "Wood, Metal"} {
		assert.Contains(t, out, want)
	}
}

func TestChart_LunarJSON(t *testing.T) {
	out, err := execute(t, "chart", "--date", "1990-01-01", "--time", "12:00", "--calendar", "lunar", "--json")
	require.NoError(t, err)

	var chart struct {
		SolarDateUsed string `json:"solarDateUsed"`
		Pillars       map[string]struct {
			Label string `json:"label"`
		} `json:"pillars"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &chart))
	assert.Equal(t, "1990-01-27", chart.SolarDateUsed)
	assert.Equal(t, "임진", chart.Pillars["day"].Label)
}

func TestChart_Conventions(t *testing.T) {
	out, err := execute(t, "chart", "--date", "2000-01-01", "--time", "00:30", "--zi", "split", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"solarDateUsed": "2000-01-01"`)

	out, err = execute(t, "chart", "--date", "2000-01-01", "--time", "00:30", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"solarDateUsed": "1999-12-31"`)
}

func TestChart_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing time", []string{"chart", "--date", "1990-01-27"}, "time"},
		{"bad zi", []string{"chart", "--date", "1990-01-27", "--time", "12:00", "--zi", "midnight"}, "zi convention"},
		{"bad date", []string{"chart", "--date", "1990-02-30", "--time", "12:00"}, ""},
		{"bad zone", []string{"chart", "--date", "1990-01-27", "--time", "12:00", "--tz", "Mars/Olympus"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := execute(t, "chart", "--date", "1990-01-27", "--time", "12:00", "--tz", "Mars/Olympus")
	code, ok := saju.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, saju.CodeInvalidTimezone, code)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"solar to lunar", []string{"convert", "--date", "2024-02-10"}, []string{"2024-01-01", "Saturday", "갑진"}},
		{"lunar to solar", []string{"convert", "--date", "1990-01-01", "--to", "solar"}, []string{"1990-01-27", "임진(壬辰)"}},
		{"leap month", []string{"convert", "--date", "2020-04-01", "--to", "solar", "--leap"}, []string{"2020-05-23", "2020-04-01(윤)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}

	_, err := execute(t, "convert", "--date", "2024-02-10", "--to", "julian")
	assert.Error(t, err)
	_, err = execute(t, "convert", "--date", "2024-02-10", "--leap")
	assert.Error(t, err)
	_, err = execute(t, "convert", "--date", "2021-04-01", "--to", "solar", "--leap")
	assert.Error(t, err)
}

func TestTerms(t *testing.T) {
	out, err := execute(t, "terms", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "2024 갑진(甲辰)")
	assert.Contains(t, out, "입춘")
	assert.NotContains(t, out, "우수")
	// year line, blank line, header, 12 terms
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 15)

	out, err = execute(t, "terms", "--year", "2024", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "우수")
	assert.Contains(t, out, "동지")

	_, err = execute(t, "terms", "--year", "1800")
	assert.Error(t, err)
}

const kasiSeollal = `{"response":{"header":{"resultCode":"00","resultMsg":"NORMAL SERVICE."},
"body":{"items":{"item":{"lunDay":"01","lunLeapmonth":"평","lunMonth":"01",
"lunSecha":"경오(庚午)","lunWolgeon":"무인(戊寅)","lunIljin":"임진(壬辰)","lunYear":1990,
"solJd":2447919}},"numOfRows":1,"pageNo":1,"totalCount":1}}}`

func TestCache_WarmAndStats(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, kasiSeollal)
	}))
	defer srv.Close()

	t.Setenv("ENV", "development")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "cache.db"))
	t.Setenv("KASI_SERVICE_KEY", "test-key")
	t.Setenv("KASI_BASE_URL", srv.URL)
	t.Setenv("CROSSREF_RATE_PER_SEC", "100")

	out, err := execute(t, "cache", "warm", "--from", "1990-01-27", "--to", "1990-01-29")
	require.NoError(t, err)
	assert.Contains(t, out, "requested 3, fetched 3, failed 0")
	assert.Equal(t, int32(3), calls.Load())

	// Cached dates are not fetched again.
	out, err = execute(t, "cache", "warm", "--from", "1990-01-27", "--to", "1990-01-29")
	require.NoError(t, err)
	assert.Contains(t, out, "fetched 3")
	assert.Equal(t, int32(3), calls.Load())

	out, err = execute(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "cached dates   3")
	assert.Contains(t, out, "1990-01-27 .. 1990-01-29")

	out, err = execute(t, "cache", "export", "--from", "1990-01-28", "--to", "1990-12-31")
	require.NoError(t, err)
	var export database.ImportData
	require.NoError(t, json.Unmarshal([]byte(out), &export))
	assert.Equal(t, "1990-01-28", export.Metadata.From)
	require.Len(t, export.Records, 2)
	assert.Equal(t, "1990-01-28", export.Records[0].SolarDate)
	assert.Equal(t, "임진(壬辰)", export.Records[0].DayGanji)
}

func TestCache_WarmRequiresKey(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "cache.db"))
	t.Setenv("KASI_SERVICE_KEY", "")
	t.Setenv("DATA_GO_KR_SERVICE_KEY", "")

	_, err := execute(t, "cache", "warm", "--from", "1990-01-27", "--to", "1990-01-27")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KASI_SERVICE_KEY")

	_, err = execute(t, "cache", "warm", "--from", "1990-01-27", "--to", "1990-01-01")
	assert.Error(t, err)
}
