package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"ontolarium/internal/config"
	"ontolarium/internal/generate"
	"ontolarium/internal/handler"
	"ontolarium/internal/hub"
	"ontolarium/internal/repository/sqlite"
	"ontolarium/internal/scene"
	"ontolarium/internal/service"
	"ontolarium/internal/sim"
	"ontolarium/internal/watcher"
)

//go:embed web/*
var webFS embed.FS

func main() {
	// Command line flags override the config file
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path")
	watchPath := flag.String("watch", "", "graph file to watch and hot-reload")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, cfgPath, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfgPath != "" {
		log.Printf("Config loaded from %s", cfgPath)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *watchPath != "" {
		cfg.Watch.Path = *watchPath
	}

	log.Println("Starting Ontolarium server...")

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	// Initialize event bus
	eventBus := service.NewEventBus()

	// Build the stage that owns layout, viewport, and selection
	simOpts := sim.Options{
		LinkDistance:  cfg.Simulation.LinkDistance,
		Charge:        cfg.Simulation.Charge,
		CollideRadius: cfg.Simulation.CollideRadius,
		VelocityDecay: cfg.Simulation.VelocityDecay,
		AlphaMin:      cfg.Simulation.AlphaMin,
		Center:        r2.Vec{X: cfg.Canvas.Width / 2, Y: cfg.Canvas.Height / 2},
	}
	stage := service.NewStage(simOpts, eventBus)
	stage.SetDragAlpha(cfg.Simulation.DragAlpha)

	// Pick the generator backend
	gen, err := buildGenerator(cfg)
	if err != nil {
		log.Fatalf("Failed to configure generator: %v", err)
	}
	log.Printf("Generator backend: %s", gen.Name())

	graphSvc := service.NewGraphService(stage, repo, gen, eventBus)

	// Initialize SSE hub; the stage snapshots a frame for each new client
	sseHub := hub.New(stage)

	// Every simulation step pushes a frame to connected projectors. The
	// handler runs inside the stage lock, so it only marshals and hands
	// off; the hub drops frames when its channel is full.
	stage.OnTick(func(s *scene.Scene, alpha float64) error {
		frame, err := json.Marshal(struct {
			Scene *scene.Scene `json:"scene"`
			Alpha float64      `json:"alpha"`
		}{s, alpha})
		if err != nil {
			return err
		}
		sseHub.BroadcastRaw("frame", frame)
		return nil
	})

	// Optional file watcher for hot-reloading a graph file
	var fileWatcher *watcher.Watcher
	if cfg.Watch.Path != "" {
		fileWatcher = watcher.New(cfg.Watch.Path, stage)
		if d := cfg.Watch.Debounce.Duration(); d > 0 {
			fileWatcher = fileWatcher.WithDebounce(d)
		}
		if err := fileWatcher.Load(); err != nil {
			log.Printf("Initial load of %s failed: %v", cfg.Watch.Path, err)
		}
	}

	// Initialize HTTP handlers
	stageHandler := handler.NewStageHandler(stage, graphSvc)

	// Setup routes
	mux := http.NewServeMux()

	// Graph endpoints (whole snapshots)
	mux.HandleFunc("GET /api/graph", stageHandler.GetGraph)
	mux.HandleFunc("PUT /api/graph", stageHandler.ReplaceGraph)
	mux.HandleFunc("POST /api/graph/generate", stageHandler.Generate)

	// Node endpoints
	mux.HandleFunc("POST /api/nodes", stageHandler.CreateNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", stageHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", stageHandler.DeleteNode)

	// Edge endpoints
	mux.HandleFunc("POST /api/edges", stageHandler.CreateEdge)
	mux.HandleFunc("DELETE /api/edges/{id}", stageHandler.DeleteEdge)

	// Pointer gestures and viewport
	mux.HandleFunc("POST /api/pointer/down", stageHandler.PointerDown)
	mux.HandleFunc("POST /api/pointer/move", stageHandler.PointerMove)
	mux.HandleFunc("POST /api/pointer/up", stageHandler.PointerUp)
	mux.HandleFunc("POST /api/pointer/wheel", stageHandler.Wheel)
	mux.HandleFunc("GET /api/view", stageHandler.GetView)
	mux.HandleFunc("POST /api/view/reset", stageHandler.ResetView)

	// Selection endpoints
	mux.HandleFunc("GET /api/selection", stageHandler.GetSelection)
	mux.HandleFunc("PUT /api/selection", stageHandler.SetSelection)
	mux.HandleFunc("DELETE /api/selection", stageHandler.ClearSelection)

	// Simulation endpoints
	mux.HandleFunc("GET /api/sim", stageHandler.GetSim)
	mux.HandleFunc("POST /api/sim/restart", stageHandler.RestartSim)
	mux.HandleFunc("POST /api/sim/stop", stageHandler.StopSim)

	// Export and stored snapshot endpoints
	mux.HandleFunc("GET /api/export", stageHandler.ExportGraph)
	mux.HandleFunc("GET /api/graphs", stageHandler.ListGraphs)
	mux.HandleFunc("PUT /api/graphs/{name}", stageHandler.SaveGraph)
	mux.HandleFunc("POST /api/graphs/{name}/load", stageHandler.LoadGraph)
	mux.HandleFunc("DELETE /api/graphs/{name}", stageHandler.DeleteGraph)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)

	// Static files from embedded filesystem
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		log.Fatalf("Failed to get embedded web content: %v", err)
	}
	mux.Handle("/", http.FileServer(http.FS(webContent)))

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create server. BaseContext ties request contexts to the signal
	// context so SSE streams end when shutdown starts.
	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     finalHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)

	// Simulation loop
	g.Go(func() error {
		return stage.Run(ctx, cfg.Simulation.TickRate.Duration())
	})

	// SSE fan-out
	g.Go(func() error {
		return sseHub.Run(ctx)
	})

	// Bridge bus events to connected clients
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case event := <-eventChan:
				sseHub.Broadcast(string(event.Type), event.Payload)
			}
		}
	})

	if fileWatcher != nil {
		g.Go(func() error {
			return fileWatcher.Watch(ctx)
		})
	}

	g.Go(func() error {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

// buildGenerator picks the generator backend named by the config
func buildGenerator(cfg *config.Config) (service.Generator, error) {
	switch cfg.Generator.Backend {
	case "", "local":
		return generate.NewLocalGenerator(), nil
	case "llm":
		opts := []generate.LLMOption{
			generate.WithLLMBaseURL(cfg.Generator.LLM.BaseURL),
			generate.WithLLMModel(cfg.Generator.LLM.Model),
			generate.WithLLMTimeout(cfg.Generator.LLM.Timeout.Duration()),
		}
		if key := os.Getenv(cfg.Generator.LLM.APIKeyEnv); key != "" {
			opts = append(opts, generate.WithLLMAPIKey(key))
		}
		return generate.NewLLMGenerator(opts...), nil
	case "netscan":
		return generate.NewNetscanGenerator(
			generate.WithScanPorts(cfg.Generator.Scan.Ports),
			generate.WithScanTimeout(cfg.Generator.Scan.Timeout.Duration()),
			generate.WithServiceDetection(cfg.Generator.Scan.ServiceDetection),
		), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Generator.Backend)
	}
}
