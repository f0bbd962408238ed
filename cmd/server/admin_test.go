package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/metrics"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/persistence/indexdb"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/catalogs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/nametag"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/world"
)

type testServer struct {
	srv    *world.Server
	engine *mobs.Engine
	idx    *indexdb.SQLiteIndex
	http   *httptest.Server
}

func newTestServer(t *testing.T, withIndex bool) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	wcfg, err := world.Load("")
	if err != nil {
		t.Fatal(err)
	}
	srv, err := world.NewServer(wcfg, 100, 1, logger)
	if err != nil {
		t.Fatal(err)
	}
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatal(err)
	}
	tune := tuning.Defaults()
	tune.CustomMobSpawnChance = 0

	ts := &testServer{srv: srv}
	opts := mobs.Options{Logger: logger, Rand: dice.New(1)}
	if withIndex {
		idx, err := indexdb.OpenSQLite(filepath.Join(t.TempDir(), "mobs.sqlite"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = idx.Close() })
		ts.idx = idx
		opts.Ledger = idx
		opts.Reports = idx
	}
	ts.engine = mobs.New(srv, tune, cats, opts)
	srv.SetListener(ts.engine)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	mux := http.NewServeMux()
	newAdminAPI(srv, ts.engine, ts.idx, logger.WithField("component", "admin")).register(mux)
	ts.http = httptest.NewServer(mux)
	t.Cleanup(ts.http.Close)
	return ts
}

func (ts *testServer) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(ts.http.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func (ts *testServer) get(t *testing.T, path string, v any) int {
	t.Helper()
	resp, err := http.Get(ts.http.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestAdminSpawnLeveled(t *testing.T) {
	ts := newTestServer(t, false)
	resp, body := ts.post(t, "/admin/v1/spawn", map[string]any{
		"world": "world", "species": "zombie", "name": "Brute", "level": 25, "y": 64,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var got spawnResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Level != 25 || got.Species != "ZOMBIE" || got.World != "world" {
		t.Fatalf("resp=%+v", got)
	}
	p, ok := nametag.Parse(got.NameTag)
	if !ok || p.Level != 25 || p.Name != "Brute" {
		t.Fatalf("name tag %q parsed=%+v ok=%v", got.NameTag, p, ok)
	}

	var census mobsResponse
	if code := ts.get(t, "/admin/v1/mobs", &census); code != http.StatusOK {
		t.Fatalf("mobs status=%d", code)
	}
	if census.Census.Tracked != 1 || census.Census.BySpecies["ZOMBIE"] != 1 {
		t.Fatalf("census=%+v", census.Census)
	}
}

func TestAdminSpawnCustom(t *testing.T) {
	ts := newTestServer(t, false)
	resp, body := ts.post(t, "/admin/v1/spawn", map[string]any{"world": "world_the_end", "custom": "corrupted_skeleton"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var got spawnResponse
	_ = json.Unmarshal(body, &got)
	if got.Level != 70 || got.Species != "STRAY" {
		t.Fatalf("resp=%+v", got)
	}
}

func TestAdminSpawnRejects(t *testing.T) {
	ts := newTestServer(t, false)
	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"level zero", map[string]any{"world": "world", "species": "ZOMBIE", "level": 0}, http.StatusBadRequest},
		{"missing world", map[string]any{"species": "ZOMBIE", "level": 5}, http.StatusBadRequest},
		{"missing species", map[string]any{"world": "world", "level": 5}, http.StatusBadRequest},
		{"unknown species", map[string]any{"world": "world", "species": "DRAGONFLY", "level": 5}, http.StatusBadRequest},
		{"player", map[string]any{"world": "world", "species": "PLAYER", "level": 5}, http.StatusBadRequest},
		{"unknown world", map[string]any{"world": "mars", "species": "ZOMBIE", "level": 5}, http.StatusNotFound},
		{"unknown custom", map[string]any{"world": "world", "custom": "nope"}, http.StatusNotFound},
		{"unknown field", map[string]any{"world": "world", "species": "ZOMBIE", "level": 5, "hp": 3}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, body := ts.post(t, "/admin/v1/spawn", tc.body)
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: status=%d want %d body=%s", tc.name, resp.StatusCode, tc.want, body)
		}
	}
	if n := ts.engine.Census().Tracked; n != 0 {
		t.Fatalf("rejected spawns registered %d creatures", n)
	}
}

func TestAdminMethodAndLoopback(t *testing.T) {
	ts := newTestServer(t, false)
	if code := ts.get(t, "/admin/v1/spawn", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("GET spawn status=%d", code)
	}

	api := newAdminAPI(ts.srv, ts.engine, nil, logrus.NewEntry(logrus.New()))
	mux := http.NewServeMux()
	api.register(mux)
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/mobs", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("remote status=%d want 403", rw.Code)
	}
}

func TestAdminSweep(t *testing.T) {
	ts := newTestServer(t, false)
	if resp, body := ts.post(t, "/admin/v1/spawn", map[string]any{"world": "world", "species": "COW", "level": 1}); resp.StatusCode != http.StatusOK {
		t.Fatalf("spawn status=%d body=%s", resp.StatusCode, body)
	}
	resp, body := ts.post(t, "/admin/v1/sweep", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sweep status=%d", resp.StatusCode)
	}
	var got sweepResponse
	_ = json.Unmarshal(body, &got)
	if got.Evicted[mobs.EvictTrivial] != 1 {
		t.Fatalf("sweep=%+v", got)
	}
}

func TestAdminLedgerWithIndex(t *testing.T) {
	ts := newTestServer(t, true)
	if resp, body := ts.post(t, "/admin/v1/spawn", map[string]any{"world": "world", "species": "SKELETON", "level": 12}); resp.StatusCode != http.StatusOK {
		t.Fatalf("spawn status=%d body=%s", resp.StatusCode, body)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		var entries []mobs.LedgerEntry
		if code := ts.get(t, "/admin/v1/ledger?kind=spawned", &entries); code != http.StatusOK {
			t.Fatalf("ledger status=%d", code)
		}
		if len(entries) == 1 {
			if entries[0].Level != 12 || entries[0].Species != "SKELETON" {
				t.Fatalf("entry=%+v", entries[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("spawned entry never indexed")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestAdminLedgerWithoutIndex(t *testing.T) {
	ts := newTestServer(t, false)
	if code := ts.get(t, "/admin/v1/ledger", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", code)
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func TestSyncWorldMetrics(t *testing.T) {
	syncWorldMetrics(world.Metrics{Tick: 42, StepMS: 5, BySpecies: map[string]int{"ZOMBIE": 3}})
	if got := gaugeValue(t, metrics.WorldTick); got != 42 {
		t.Fatalf("tick=%v", got)
	}
	if got := gaugeValue(t, metrics.WorldCreatures.WithLabelValues("ZOMBIE")); got != 3 {
		t.Fatalf("zombies=%v", got)
	}
	syncWorldMetrics(world.Metrics{Tick: 43})
	if got := gaugeValue(t, metrics.WorldStepSeconds); got != 0 {
		t.Fatalf("step=%v", got)
	}
}
