package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/menus/internal/service/httpapi"
	menusvc "github.com/vladislavdragonenkov/menus/internal/service/menu"
	"github.com/vladislavdragonenkov/menus/internal/storage/memory"
)

func newMenuServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine := menusvc.NewService(memory.NewStore())
	srv := httptest.NewServer(httpapi.NewHandler(engine).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.baseURL)
	require.Equal(t, modeRead, cfg.mode)
	require.Equal(t, 400, cfg.total)
	require.False(t, cfg.totalSet)
}

func TestParseConfigFlags(t *testing.T) {
	cfg, err := parseConfig([]string{
		"-url=http://menus:8080/",
		"-mode=mixed",
		"-total=10",
		"-duration=2s",
		"-concurrency=3",
		"-no-cache",
	})
	require.NoError(t, err)
	require.Equal(t, "http://menus:8080", cfg.baseURL)
	require.Equal(t, modeMixed, cfg.mode)
	require.True(t, cfg.totalSet)
	require.True(t, cfg.noCache)
	require.Equal(t, 2*time.Second, cfg.duration)
	require.Equal(t, "duration:2s,max-total:10", runTarget(cfg))
}

func TestParseConfigValidation(t *testing.T) {
	tests := map[string][]string{
		"unsupported mode":    {"-mode=delete-all"},
		"duration must be":    {"-duration=-1s"},
		"total must be > 0":   {"-total=0"},
		"concurrency must be": {"-concurrency=0"},
		"timeout must be":     {"-timeout=0s"},
		"depth must be":       {"-depth=0"},
		"name-prefix":         {"-name-prefix= "},
		"url is required":     {"-url= "},
	}
	for want, args := range tests {
		t.Run(want, func(t *testing.T) {
			_, err := parseConfig(args)
			require.ErrorContains(t, err, want)
		})
	}
}

func TestRunModesAgainstServer(t *testing.T) {
	srv := newMenuServer(t)

	expected := map[loadMode][]string{
		modeRead:  {"GetTree"},
		modeWrite: {"CreateMenu", "UpdateMenu", "DeleteMenu"},
		modeMixed: {"CreateMenu", "GetTree", "GetChildren", "DeleteMenu"},
	}
	for mode, methods := range expected {
		t.Run(string(mode), func(t *testing.T) {
			cfg := config{
				baseURL:     srv.URL,
				total:       20,
				concurrency: 4,
				timeout:     time.Second,
				mode:        mode,
				depth:       3,
				namePrefix:  "lt",
			}

			result := run(cfg, srv.Client())
			require.Equal(t, int64(20), result.TotalScenarios)
			require.Zero(t, result.FailedScenarios)
			for _, method := range methods {
				require.Contains(t, result.Methods, method)
				require.Equal(t, int64(20), result.Methods[method].Calls)
			}
		})
	}

	// write и mixed удаляют созданные пункты
	resp, err := srv.Client().Get(srv.URL + "/api/menus/list")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Zero(t, body.Meta.Total)
}

func TestRunRecordsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config{baseURL: srv.URL, total: 5, concurrency: 2, timeout: time.Second, mode: modeWrite, depth: 1, namePrefix: "lt"}
	result := run(cfg, srv.Client())

	require.Equal(t, int64(5), result.FailedScenarios)
	require.Equal(t, 1.0, result.ErrorRate)
	require.Equal(t, int64(5), result.Methods["CreateMenu"].Codes["500"])
	require.NotContains(t, result.Methods, "DeleteMenu")
}

func TestDispatchJobsDuration(t *testing.T) {
	jobs := make(chan int)
	done := make(chan int)
	go func() {
		count := 0
		for range jobs {
			count++
		}
		done <- count
	}()

	dispatchJobs(jobs, config{duration: 20 * time.Millisecond, total: 3, totalSet: true})
	require.Equal(t, 3, <-done)
}

func TestLatencySummary(t *testing.T) {
	require.Equal(t, latencySummary{}, buildLatencySummary(nil))

	summary := buildLatencySummary([]float64{4, 1, 3, 2})
	require.Equal(t, 1.0, summary.Min)
	require.Equal(t, 4.0, summary.Max)
	require.Equal(t, 2.5, summary.Avg)
	require.Equal(t, 2.5, summary.P50)
	require.InDelta(t, 3.85, summary.P95, 1e-9)

	require.Equal(t, 7.0, percentile([]float64{7}, 99))
	require.Zero(t, ratio(1, 0))
}

func TestCollectorSuccessCodes(t *testing.T) {
	col := newCollector()
	col.record("GetTree", time.Millisecond, "200")
	col.record("GetTree", time.Millisecond, "422")
	col.record("GetTree", time.Millisecond, codeTransportError)

	result := col.buildReport(time.Now(), time.Second)
	stats := result.Methods["GetTree"]
	require.Equal(t, int64(3), stats.Calls)
	require.Equal(t, int64(1), stats.Success)
	require.Equal(t, int64(2), stats.Failed)
}

func TestWriteAndPrintReport(t *testing.T) {
	col := newCollector()
	col.record(scenarioName, 2*time.Millisecond, "ok")
	col.record("GetTree", 2*time.Millisecond, "200")
	result := col.buildReport(time.Now(), time.Second)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, writeJSONReport(path, result))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"total_scenarios": 1`)

	require.Error(t, writeJSONReport(".", result))
	require.Error(t, writeJSONReport("../escape.json", result))

	var out bytes.Buffer
	printReport(&out, result, config{mode: modeRead, total: 1})
	require.Contains(t, out.String(), "mode=read run=count:1 total=1 success=1")
	require.Contains(t, out.String(), "GetTree")
}
