package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jgivc/vsxsync/internal/adapter/manifest"
	"github.com/jgivc/vsxsync/internal/adapter/openvsx"
	"github.com/jgivc/vsxsync/internal/adapter/page"
	"github.com/jgivc/vsxsync/internal/config"
	httphandler "github.com/jgivc/vsxsync/internal/handler/http"
	redisledger "github.com/jgivc/vsxsync/internal/repository/ledger"
	"github.com/jgivc/vsxsync/internal/service/download"
	"github.com/jgivc/vsxsync/internal/service/resolver"
	"github.com/jgivc/vsxsync/internal/service/sync"
	"github.com/jgivc/vsxsync/internal/storage/ledger"
	"github.com/jgivc/vsxsync/internal/storage/results"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfgPath string
	cfg     *config.Config
	srv     *http.Server
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	resultsStore := results.NewStorage(a.cfg.ResultsFile, log)

	// With a redis URL configured the ledger moves off the single JSON
	// file, so several processes can share it without losing writes.
	var ledgerStore download.LedgerStore
	if a.cfg.RedisURL != "" {
		opt, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			panic(err)
		}

		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			panic(err)
		}

		ledgerStore = redisledger.NewLedgerRepository(rdb, log)
	} else {
		ledgerStore = ledger.NewStorage(a.cfg.LedgerFile, log)
	}

	registry := openvsx.NewClient(a.cfg.RegistryURL, log)
	parser := manifest.NewParser()

	syncSrv := sync.NewSyncService(registry, resultsStore, log)
	dSrv := download.NewDownloadService(registry, ledgerStore, a.cfg.DownloadsDir, log)
	rSrv := resolver.NewResolverService(resultsStore, log)

	pageAdapter, err := page.NewAdapter(a.cfg.PageFile, log)
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", httphandler.NewPageHandler(pageAdapter, log))
	mux.Handle("POST /check/{$}", httphandler.NewCheckHandler(parser, syncSrv, log))
	mux.Handle("GET /results/{$}", httphandler.NewResultsHandler(resultsStore, log))
	mux.Handle("GET /downloads/{$}", httphandler.NewLedgerHandler(ledgerStore, log))
	mux.Handle("POST /download/{id}/{$}", httphandler.NewPrepareHandler(dSrv, log))
	mux.Handle("POST /download-by-uuid/{uuid}/{$}", httphandler.NewResolveHandler(rSrv, dSrv, log))

	a.srv = &http.Server{
		Addr:    a.cfg.Listen,
		Handler: mux,
	}

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.srv.Shutdown(ctx)
}
