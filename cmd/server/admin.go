package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/persistence/indexdb"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/custom"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/world"
)

// adminAPI serves the loopback-only /admin/v1 endpoints. Every host mutation
// goes through srv.Do so it runs on the game thread.
type adminAPI struct {
	srv      *world.Server
	engine   *mobs.Engine
	idx      *indexdb.SQLiteIndex
	log      *logrus.Entry
	validate *validator.Validate
	timeout  time.Duration
}

func newAdminAPI(srv *world.Server, engine *mobs.Engine, idx *indexdb.SQLiteIndex, log *logrus.Entry) *adminAPI {
	return &adminAPI{
		srv:      srv,
		engine:   engine,
		idx:      idx,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		timeout:  5 * time.Second,
	}
}

func (a *adminAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/v1/mobs", a.loopback(a.handleMobs))
	mux.HandleFunc("/admin/v1/spawn", a.loopback(a.handleSpawn))
	mux.HandleFunc("/admin/v1/sweep", a.loopback(a.handleSweep))
	mux.HandleFunc("/admin/v1/ledger", a.loopback(a.handleLedger))
	mux.HandleFunc("/admin/v1/species", a.loopback(a.handleSpecies))
}

func (a *adminAPI) loopback(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

type mobsResponse struct {
	Tick    uint64        `json:"tick"`
	Census  mobs.Census   `json:"census"`
	Metrics world.Metrics `json:"metrics"`
}

func (a *adminAPI) handleMobs(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(rw, http.StatusOK, mobsResponse{
		Tick:    a.srv.CurrentTick(),
		Census:  a.engine.Census(),
		Metrics: a.srv.Metrics(),
	})
}

type spawnRequest struct {
	World   string  `json:"world" validate:"required"`
	Species string  `json:"species" validate:"required_without=Custom"`
	Custom  string  `json:"custom,omitempty"`
	Name    string  `json:"name,omitempty" validate:"max=64"`
	Level   int     `json:"level"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

type spawnResponse struct {
	CreatureID string `json:"creature_id"`
	World      string `json:"world"`
	Species    string `json:"species"`
	Level      int    `json:"level"`
	NameTag    string `json:"name_tag"`
}

func (a *adminAPI) handleSpawn(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req spawnRequest
	dec := json.NewDecoder(http.MaxBytesReader(rw, r.Body, 64*1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, err)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(rw, http.StatusBadRequest, err)
		return
	}
	var sp species.Species
	if req.Custom == "" {
		var ok bool
		if sp, ok = species.Parse(req.Species); !ok {
			writeError(rw, http.StatusBadRequest, errors.New("unknown species: "+req.Species))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
	defer cancel()

	var (
		resp     spawnResponse
		spawnErr error
	)
	err := a.srv.Do(ctx, func(s *world.Server) {
		w, ok := s.World(req.World)
		if !ok {
			spawnErr = world.ErrUnknownWorld
			return
		}
		pos := host.Vec3{X: req.X, Y: req.Y, Z: req.Z}
		var c host.Creature
		if req.Custom != "" {
			c, spawnErr = a.engine.SpawnCustom(w, pos, req.Custom)
		} else {
			c, spawnErr = a.engine.SpawnLeveled(w, pos, sp, req.Name, req.Level)
		}
		if spawnErr != nil {
			return
		}
		resp = spawnResponse{
			CreatureID: c.ID().String(),
			World:      w.Name(),
			Species:    c.Species().String(),
			Level:      a.engine.Level(c),
			NameTag:    c.CustomName(),
		}
	})
	if err != nil {
		writeError(rw, http.StatusServiceUnavailable, err)
		return
	}
	if spawnErr != nil {
		writeError(rw, spawnStatus(spawnErr), spawnErr)
		return
	}
	a.log.WithFields(logrus.Fields{
		"creature_id": resp.CreatureID,
		"species":     resp.Species,
		"level":       resp.Level,
	}).Info("admin spawn")
	writeJSON(rw, http.StatusOK, resp)
}

func spawnStatus(err error) int {
	switch {
	case errors.Is(err, world.ErrUnknownWorld), errors.Is(err, custom.ErrUnknown):
		return http.StatusNotFound
	case errors.Is(err, mobs.ErrInvalidLevel), errors.Is(err, world.ErrNotSpawnable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type sweepResponse struct {
	Scanned int            `json:"scanned"`
	Evicted map[string]int `json:"evicted"`
	TookMS  int64          `json:"took_ms"`
}

func (a *adminAPI) handleSweep(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rep := a.engine.Sweep()
	writeJSON(rw, http.StatusOK, sweepResponse{Scanned: rep.Scanned, Evicted: rep.Evicted, TookMS: rep.Took.Milliseconds()})
}

func (a *adminAPI) handleLedger(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if a.idx == nil {
		writeError(rw, http.StatusServiceUnavailable, errors.New("index disabled"))
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	entries, err := indexdb.RecentEntries(r.Context(), a.idx.DB(), indexdb.Filter{
		CreatureID: strings.TrimSpace(q.Get("creature_id")),
		Kind:       strings.TrimSpace(q.Get("kind")),
		Species:    strings.TrimSpace(q.Get("species")),
		Limit:      limit,
	})
	if err != nil {
		writeError(rw, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []mobs.LedgerEntry{}
	}
	writeJSON(rw, http.StatusOK, entries)
}

func (a *adminAPI) handleSpecies(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if a.idx == nil {
		writeError(rw, http.StatusServiceUnavailable, errors.New("index disabled"))
		return
	}
	out, err := indexdb.LiveSpecies(r.Context(), a.idx.DB())
	if err != nil {
		writeError(rw, http.StatusInternalServerError, err)
		return
	}
	if out == nil {
		out = []indexdb.SpeciesSummary{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"species": out, "queue": a.idx.Stats()})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, err error) {
	writeJSON(rw, status, map[string]any{"ok": false, "error": err.Error()})
}

func isLoopbackRemote(remoteAddr string) bool {
	addr := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		addr = h
	}
	addr = strings.TrimPrefix(addr, "[")
	addr = strings.TrimSuffix(addr, "]")
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}
