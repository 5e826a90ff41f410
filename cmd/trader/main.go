package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/bus"
	"main/internal/engine"
	"main/internal/ingest"
	"main/internal/ingest/feed"
	"main/internal/mdg"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/report"
	"main/internal/schema"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	session := flag.String("session", time.Now().Format("2006-01-02"), "Session label for persisted trades")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("-config is required")
	}
	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "region-arb/trader",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	metrics := obs.NewMetrics()
	options := []engine.Option{
		engine.WithMetrics(metrics),
		engine.WithObserver(report.LogSink{}),
	}

	if loaded.Report.Postgres.Host != "" {
		client, err := conn.New(conn.Option{
			Host:     loaded.Report.Postgres.Host,
			Port:     loaded.Report.Postgres.Port,
			User:     loaded.Report.Postgres.User,
			Password: loaded.Report.Postgres.Password,
			Database: loaded.Report.Postgres.Database,
		})
		if err != nil {
			log.Fatalf("postgres connect failed: %v", err)
		}
		defer func() {
			_ = client.Close()
		}()
		store, err := report.NewStore(client.DB(), *session)
		if err != nil {
			log.Fatalf("trade store init failed: %v", err)
		}
		options = append(options, engine.WithObserver(store))
	}

	eng, err := engine.New(loaded.Params, loaded.Instruments, options...)
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch loaded.Feed.Mode {
	case "replay":
		err = runReplay(eng, loaded)
	case "synthetic":
		err = runSynthetic(eng, loaded)
	case "live":
		err = runLive(ctx, eng, loaded)
	default:
		log.Fatalf("unknown feed mode: %q", loaded.Feed.Mode)
	}
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	printSummary(eng, metrics)
}

func runReplay(eng *engine.Engine, loaded ops.Loaded) error {
	if loaded.Feed.CSVPath == "" {
		return fmt.Errorf("replay mode needs feed.csvPath")
	}
	file, err := os.Open(loaded.Feed.CSVPath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := ingest.NewReader(file, len(loaded.Instruments))
	for {
		tick, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := eng.OnTick(tick.Timestamp, tick.Returns, tick.Prices); err != nil {
			log.Printf("tick rejected: %v", err)
		}
	}
}

func runSynthetic(eng *engine.Engine, loaded ops.Loaded) error {
	ticks := loaded.Feed.Ticks
	if ticks <= 0 {
		ticks = 390
	}
	gen, err := mdg.NewGenerator(len(loaded.Instruments), loaded.Feed.Seed, loaded.Feed.BasePrice)
	if err != nil {
		return err
	}
	for i := 0; i < ticks; i++ {
		tick := gen.Next()
		if err := eng.OnTick(tick.Timestamp, tick.Returns, tick.Prices); err != nil {
			log.Printf("tick rejected: %v", err)
		}
	}
	return nil
}

func runLive(ctx context.Context, eng *engine.Engine, loaded ops.Loaded) error {
	pub := feed.NewBinancePub(ctx)
	if err := pub.StartWebsocket(ctx); err != nil {
		return err
	}
	defer pub.Close()

	symbols := make([]string, 0, len(loaded.Instruments))
	for _, instrument := range loaded.Instruments {
		symbols = append(symbols, string(instrument))
	}
	if err := pub.SubscribeMiniTicker(ctx, symbols...); err != nil {
		return err
	}

	queue := bus.NewQueue(1024)
	normalizer := feed.NewNormalizer(loaded.Instruments)
	cancel := pub.ObserveMiniTicker(ctx, func(t feed.BinanceMiniTicker) {
		price, ok := t.Price()
		if !ok {
			return
		}
		ts := time.UnixMilli(t.EventTime)
		tick, ready := normalizer.Apply(schema.Instrument(t.Symbol), price, ts)
		if !ready {
			return
		}
		if err := queue.TryPublish(tick); err != nil {
			log.Printf("tick dropped: %v", err)
		}
	})
	defer cancel()

	queue.Run(ctx, func(tick ingest.Tick) {
		if err := eng.OnTick(tick.Timestamp, tick.Returns, tick.Prices); err != nil {
			log.Printf("tick rejected: %v", err)
		}
	})
	return nil
}

func printSummary(eng *engine.Engine, metrics *obs.Metrics) {
	trades := eng.Trades()
	var mean float64
	for _, roi := range trades {
		mean += roi
	}
	if len(trades) > 0 {
		mean /= float64(len(trades))
	}

	snap := metrics.Snapshot()
	log.Printf("session done: balance=%.2f trades=%d meanROI=%.4f%% openLegs=%d",
		eng.Balance(), len(trades), mean*100, len(eng.OpenLegs()))
	log.Printf("ticks=%d rejected=%d opened=%d closes=%v tickLatencyAvg=%s",
		snap.TicksProcessed, snap.SnapshotsRejected, snap.LegsOpened,
		snap.CloseCounts, snap.TickLatency.Avg)
}
