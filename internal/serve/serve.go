/*
PURPOSE:
  Serves the generated report over HTTP and regenerates it when the
  configuration or any benchmark data directory changes.

REQUIREMENTS:
  User-specified:
  - Endpoints: the report at /, /healthz, /api/levels (both axes).
  - Watch the config file and every directory holding matched input
    files; debounce bursts and rebuild through the caller's pipeline.
  - SIGINT/SIGTERM shut the listener down gracefully.

  Implementation-discovered:
  - Editors do atomic saves (write to temp, rename), so directories are
    watched, not just files.
  - Regeneration writes the report into a possibly watched directory;
    events on the report file itself are ignored or the loop feeds
    itself.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/serve.go (wires the pipeline closure)
  - Uses: gofiber/fiber for HTTP, fsnotify for the watcher.

ERROR HANDLING:
  - Startup errors (bad address, unwatchable path) fail Start.
  - Regeneration errors are logged and the previous report stays up.

IMPLEMENTATION RULES:
  - 500ms debounce via a reset time.AfterFunc.
  - The levels snapshot is guarded; /api/levels must never race the
    regeneration goroutine.

USAGE:
  srv := serve.New(opts)
  err := srv.Start()       // blocks until Shutdown
  srv.Shutdown()

SELF-HEALING INSTRUCTIONS:
  - Report not refreshing: confirm the data files match the config
    globs; only directories of matched files are watched.

RELATED FILES:
  - internal/cli/serve.go

MAINTENANCE:
  - New API endpoints belong in newApp.
*/

package serve

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
)

const debounceDelay = 500 * time.Millisecond

// Levels is the /api/levels payload: the distinct axis values present
// in the loaded summary table.
type Levels struct {
	Concurrency []float64 `json:"concurrency"`
	RPS         []float64 `json:"rps"`
}

// Options wires the server to the caller's report pipeline.
type Options struct {
	Addr       string
	ReportPath string
	WatchPaths []string
	// Regenerate rebuilds the report and returns the fresh levels.
	Regenerate func() (Levels, error)
	// InitialLevels seeds /api/levels before the first rebuild.
	InitialLevels Levels
	Log           *slog.Logger
}

// Server is the HTTP front end plus the change watcher.
type Server struct {
	opts    Options
	app     *fiber.App
	watcher *fsnotify.Watcher
	stop    chan struct{}

	mu     sync.RWMutex
	levels Levels
}

// New assembles the server; Start brings it up.
func New(opts Options) *Server {
	s := &Server{
		opts:   opts,
		stop:   make(chan struct{}),
		levels: opts.InitialLevels,
	}
	s.app = s.newApp()
	return s
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendFile(s.opts.ReportPath)
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/api/levels", func(c *fiber.Ctx) error {
		s.mu.RLock()
		levels := s.levels
		s.mu.RUnlock()
		return c.JSON(levels)
	})
	app.Static("/", filepath.Dir(s.opts.ReportPath))

	return app
}

// Start begins watching and serves until Shutdown is called.
func (s *Server) Start() error {
	if err := s.startWatcher(); err != nil {
		return err
	}
	s.opts.Log.Info("serving report", "addr", s.opts.Addr, "report", s.opts.ReportPath)
	return s.app.Listen(s.opts.Addr)
}

// Shutdown stops the watcher and drains the listener.
func (s *Server) Shutdown() error {
	close(s.stop)
	if s.watcher != nil {
		s.watcher.Close()
	}
	return s.app.Shutdown()
}

func (s *Server) startWatcher() error {
	if len(s.opts.WatchPaths) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	s.watcher = watcher

	for _, path := range s.opts.WatchPaths {
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		s.opts.Log.Debug("watching for changes", "path", path)
	}

	go s.watchLoop()
	return nil
}

func (s *Server) watchLoop() {
	// Debounce timer to avoid rebuilding multiple times for rapid changes
	var debounceTimer *time.Timer

	reportName := filepath.Base(s.opts.ReportPath)

	for {
		select {
		case <-s.stop:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			// The rebuild writes the report; reacting to that write
			// would loop forever.
			if filepath.Base(event.Name) == reportName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, s.regenerate)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.opts.Log.Warn("watcher error", "error", err)
		}
	}
}

func (s *Server) regenerate() {
	s.opts.Log.Info("change detected, regenerating report")
	levels, err := s.opts.Regenerate()
	if err != nil {
		s.opts.Log.Error("report regeneration failed", "error", err)
		return
	}
	s.mu.Lock()
	s.levels = levels
	s.mu.Unlock()
	s.opts.Log.Info("report regenerated", "report", s.opts.ReportPath)
}
