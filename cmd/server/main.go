package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "voxelflow.ai/internal/persistence/log"
	"voxelflow.ai/internal/persistence/snapshot"
	"voxelflow.ai/internal/sim/catalogs"
	"voxelflow.ai/internal/sim/scenario"
	"voxelflow.ai/internal/sim/tuning"
	"voxelflow.ai/internal/sim/world"
	"voxelflow.ai/internal/transport/observer"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		worldID      = flag.String("world", "world_1", "world id")
		configDir    = flag.String("configs", "./configs", "config directory")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		scenarioPath = flag.String("scenario", "", "scenario for a fresh world (default: <configs>/scenario.yaml if present)")
		disableDB    = flag.Bool("disable_db", false, "disable indexing (tick/audit + catalogs + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	tickLog := persistlog.NewTickLogger(worldDir, persistlog.Options{})
	auditLog := persistlog.NewAuditLogger(worldDir, persistlog.Options{})
	defer tickLog.Close()
	defer auditLog.Close()

	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		cfg := world.ConfigFromSnapshot(snap)
		cfg.ID = *worldID
		cfg.MaxCommandsPerTick = tune.MaxCommandsPerTick
		w, err = world.New(cfg, cats)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		w.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	} else {
		w, err = world.New(worldConfig(*worldID, tune), cats)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
		w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		w.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
		if err := startFresh(w, worldDir, *configDir, *scenarioPath, idx, logger); err != nil {
			logger.Fatalf("fresh world: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := snapshot.Path(worldDir, snap.Header.Tick)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	obsSrv := observer.NewServer(w, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		writeMetrics(rw, *worldID, w, idx)
	})
	mux.HandleFunc("/v1/command", obsSrv.CommandHandler())

	if envBool("VF_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID string             `json:"world_id"`
				Tick    uint64             `json:"tick"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				WorldID: *worldID,
				Tick:    w.CurrentTick(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			tick, err := w.RequestSnapshot(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": tick, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": tick})
		})
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (VF_ENABLE_ADMIN_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s world=%s tick=%d", *addr, *worldID, w.CurrentTick())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func worldConfig(id string, tune tuning.Tuning) world.WorldConfig {
	return world.WorldConfig{
		ID:                 id,
		TickRateHz:         tune.TickRateHz,
		Height:             tune.Height,
		BoundaryR:          tune.WorldBoundaryR,
		SnapshotEveryTicks: tune.SnapshotEveryTicks,
		EntityContact:      tune.EntityContactEnabled(),
		MaxCommandsPerTick: tune.MaxCommandsPerTick,
	}
}

// startFresh places the scenario, steps tick 0 and writes its snapshot so that every later
// tick can be replayed from disk.
func startFresh(w *world.World, worldDir, configDir, scenarioPath string, idx runtimeIndex, logger *log.Logger) error {
	sp := strings.TrimSpace(scenarioPath)
	explicit := sp != ""
	if !explicit {
		sp = filepath.Join(configDir, "scenario.yaml")
	}
	sc, err := scenario.Load(sp)
	switch {
	case err == nil:
		if sc.WorldID != "" && sc.WorldID != w.ID() {
			logger.Printf("scenario %s was written for world %s; applying to %s", filepath.Base(sp), sc.WorldID, w.ID())
		}
		if err := w.ApplyScenario(sc); err != nil {
			return fmt.Errorf("apply scenario: %w", err)
		}
		logger.Printf("scenario=%s fills=%d fluids=%d entities=%d", filepath.Base(sp), len(sc.Fills), len(sc.Fluids), len(sc.Entities))
	case os.IsNotExist(err) && !explicit:
		logger.Printf("no scenario at %s; starting empty", sp)
	default:
		return fmt.Errorf("load scenario: %w", err)
	}

	tick, _ := w.StepOnce(nil)
	snap := w.ExportSnapshot(tick)
	path := snapshot.Path(worldDir, tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return fmt.Errorf("write initial snapshot: %w", err)
	}
	if idx != nil {
		idx.RecordSnapshot(path, snap)
	}
	return nil
}

func writeMetrics(rw http.ResponseWriter, worldID string, w *world.World, idx runtimeIndex) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	m := w.Metrics()
	tick := w.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}

	// Minimal Prometheus exposition format.
	gauge := func(name, help string, v any) {
		fmt.Fprintf(rw, "# HELP voxelflow_%s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE voxelflow_%s gauge\n", name)
		fmt.Fprintf(rw, "voxelflow_%s{world=%q} %v\n", name, worldID, v)
	}
	gauge("world_tick", "Current world tick.", tick)
	gauge("world_pending_updates", "Scheduled fluid updates.", m.Pending)
	gauge("world_entities", "Living entities.", m.Entities)
	gauge("world_observers", "Connected observers.", m.Observers)
	gauge("world_loaded_chunks", "Loaded chunk count.", m.Chunks)
	gauge("world_step_ms", "Last tick step duration in milliseconds.", fmt.Sprintf("%.3f", m.StepMS))

	fmt.Fprintf(rw, "# HELP voxelflow_fluid_tick Fluid work done in the last tick.\n")
	fmt.Fprintf(rw, "# TYPE voxelflow_fluid_tick gauge\n")
	for _, kv := range []struct {
		k string
		v int
	}{
		{"updates", m.Fluid.Updates},
		{"stale", m.Fluid.Stale},
		{"spread", m.Fluid.Spread},
		{"fell", m.Fluid.Fell},
		{"hardened", m.Fluid.Hardened},
		{"displaced", m.Fluid.Displaced},
		{"woken", m.Fluid.Woken},
		{"entities_touched", m.Fluid.EntitiesTouched},
	} {
		fmt.Fprintf(rw, "voxelflow_fluid_tick{world=%q,metric=%q} %d\n", worldID, kv.k, kv.v)
	}

	if idx != nil {
		fmt.Fprintf(rw, "# HELP voxelflow_index_dropped_total Index writes dropped under load.\n")
		fmt.Fprintf(rw, "# TYPE voxelflow_index_dropped_total counter\n")
		fmt.Fprintf(rw, "voxelflow_index_dropped_total{world=%q} %d\n", worldID, idx.Dropped())
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
