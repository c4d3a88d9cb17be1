package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"CoinSentinel/internal/api"
	"CoinSentinel/internal/cache"
	"CoinSentinel/internal/calculator"
	"CoinSentinel/internal/collector"
	"CoinSentinel/internal/config"
	"CoinSentinel/internal/ledger"
	"CoinSentinel/internal/metrics"
	"CoinSentinel/internal/monitor"
	"CoinSentinel/internal/notifier"
	"CoinSentinel/internal/scheduler"
	"CoinSentinel/internal/series"
	"CoinSentinel/internal/stats"
	"CoinSentinel/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CoinSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init price source
	primary := collector.NewBinanceFetcher(cfg.DataSource.BaseURL, cfg.DataSource.Symbol, cfg.Proxy, cfg.DataSource.Timeout)
	fallback := collector.NewBinanceFetcher(cfg.DataSource.BaseURL, cfg.DataSource.FallbackSymbol, cfg.Proxy, cfg.DataSource.Timeout)
	col := collector.NewCollector(primary, fallback, decimal.NewFromFloat(cfg.DataSource.FallbackRate))
	log.Printf("[INFO] data source: %s (fallback %s x %.4f)", primary.Name(), fallback.Name(), cfg.DataSource.FallbackRate)

	// Init ledger store
	var st store.Store
	if cfg.Database.Driver == "memory" {
		log.Println("[WARN] using in-memory ledger store, nothing will be persisted")
		st = store.NewMemoryStore()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Fatalf("[FATAL] create data dir: %v", err)
		}
		sq, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("[FATAL] open sqlite store: %v", err)
		}
		st = sq
	}
	led, err := ledger.NewManager(ctx, st)
	if err != nil {
		log.Fatalf("[FATAL] init ledger: %v", err)
	}
	defer led.Close()

	mx := metrics.NewMetrics()
	led.SetObserver(mx.ObserveLedger)

	// Init monitor
	engine := calculator.Engine{
		RSIPeriod:  cfg.Series.RSIPeriod,
		FastWindow: cfg.Series.FastWindow,
		SlowWindow: cfg.Series.SlowWindow,
	}
	tracker := stats.NewTracker(led)
	if err := tracker.Load(ctx); err != nil {
		log.Printf("[WARN] load all-time high: %v", err)
	}
	mon := monitor.New(cfg.DataSource.Symbol, col, series.New(cfg.Series.Capacity, engine), tracker)

	// Publishers
	var snapCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisAdapter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Printf("[WARN] redis unavailable, cache disabled: %v", err)
		} else {
			snapCache = rc
		}
	}
	defer snapCache.Close()
	pubs := []scheduler.Publisher{mx, snapCache}

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		pubs = append(pubs, notifier.NewSignalAlerter(tn))
	} else {
		log.Println("[INFO] telegram.bot_token not set, bot disabled")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, mon, led, tn, pubs...)
	if err := sched.RegisterAll(cfg.Schedule.TickCron, cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.RunTickNow()

	router := api.NewRouter(&api.Handler{Monitor: mon, Ledger: led}, mx.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return api.Serve(gctx, cfg.HTTP.Addr, router) })
	if tn != nil {
		cmds := &notifier.Commands{Snapshots: mon, Wallet: led}
		g.Go(func() error {
			log.Println("[INFO] Telegram polling started")
			tn.StartPolling(gctx, cmds.Handle)
			return nil
		})
	}

	log.Println("[INFO] CoinSentinel is running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil {
		log.Printf("[ERROR] %v", err)
	}
	log.Println("[INFO] CoinSentinel stopped")
}

