package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "waystones.ai/internal/persistence/log"
	"waystones.ai/internal/persistence/playerdb"
	"waystones.ai/internal/sim/game"
	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/voxel"
	"waystones.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configPath = flag.String("config", "./configs/waystones.yaml", "path to waystones.yaml (empty for defaults)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "run without sqlite persistence (players and waystones are lost on restart)")
		disableLog = flag.Bool("disable_teleport_log", false, "disable the compressed teleport audit log")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := tuning.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load config: %v", err)
		}
		logger.Printf("config not found (%s); using defaults", *configPath)
		cfg = tuning.Defaults()
		cfg.Normalize()
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	opts := game.Options{
		Tuning: cfg,
		Worlds: voxel.NewWorlds(cfg),
	}
	if !*disableDB {
		db, err := playerdb.Open(filepath.Join(*dataDir, "players.sqlite"))
		if err != nil {
			logger.Fatalf("open player db: %v", err)
		}
		defer db.Close()
		opts.Store = db
	}
	if !*disableLog {
		tl := persistlog.NewTeleportLogger(*dataDir)
		tl.OnError = func(err error) { logger.Printf("teleport log: %v", err) }
		defer tl.Close()
		opts.Recorder = tl
	}

	g := game.New(opts, logger)
	if err := g.LoadWaystones(context.Background()); err != nil {
		logger.Fatalf("waystones: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := g.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("game stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, g.Metrics())
	})
	if envBool("WS_ENABLE_ADMIN_HTTP", true) {
		// Local-only.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(g.Metrics())
		})
	} else {
		logger.Printf("admin endpoints disabled (WS_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("WS_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(g, logger).Handler())

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

	logger.Printf("listening on %s (dimensions=%d waystones=%d)", *addr, len(cfg.Dimensions), g.Metrics().Waystones)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	// Let the loop flush players before the db closes.
	cancel()
	<-loopDone
}

func writeMetrics(rw http.ResponseWriter, m game.Metrics) {
	fmt.Fprintf(rw, "# HELP waystones_tick Current game tick.\n")
	fmt.Fprintf(rw, "# TYPE waystones_tick gauge\n")
	fmt.Fprintf(rw, "waystones_tick %d\n", m.Tick)
	fmt.Fprintf(rw, "# HELP waystones_players Connected players.\n")
	fmt.Fprintf(rw, "# TYPE waystones_players gauge\n")
	fmt.Fprintf(rw, "waystones_players %d\n", m.Players)
	fmt.Fprintf(rw, "# HELP waystones_waystones Registered waystones.\n")
	fmt.Fprintf(rw, "# TYPE waystones_waystones gauge\n")
	fmt.Fprintf(rw, "waystones_waystones %d\n", m.Waystones)
	fmt.Fprintf(rw, "# HELP waystones_teleports_total Teleport attempts by result.\n")
	fmt.Fprintf(rw, "# TYPE waystones_teleports_total counter\n")
	fmt.Fprintf(rw, "waystones_teleports_total{result=%q} %d\n", "ok", m.Teleports)
	fmt.Fprintf(rw, "waystones_teleports_total{result=%q} %d\n", "denied", m.Denied)
	fmt.Fprintf(rw, "# HELP waystones_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE waystones_queue_depth gauge\n")
	fmt.Fprintf(rw, "waystones_queue_depth{queue=%q} %d\n", "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(rw, "waystones_queue_depth{queue=%q} %d\n", "join", m.QueueDepths.Join)
	fmt.Fprintf(rw, "waystones_queue_depth{queue=%q} %d\n", "leave", m.QueueDepths.Leave)
	fmt.Fprintf(rw, "# HELP waystones_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE waystones_step_ms gauge\n")
	fmt.Fprintf(rw, "waystones_step_ms %.3f\n", m.StepMS)
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

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
