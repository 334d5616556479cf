package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/ewsim/config"
	"github.com/signalsfoundry/ewsim/core"
	"github.com/signalsfoundry/ewsim/internal/logging"
	"github.com/signalsfoundry/ewsim/internal/observability"
	"github.com/signalsfoundry/ewsim/timectrl"
)

func main() {
	configPath := flag.String("config", "", "path to simulation config YAML (empty for built-in defaults)")
	scenarioPath := flag.String("scenario", "", "path to force-layout scenario YAML")
	duration := flag.Duration("duration", 20*time.Minute, "total simulation duration (0 runs until interrupted)")
	tick := flag.Duration("tick", 100*time.Millisecond, "tick interval")
	accelerated := flag.Bool("accelerated", false, "run in accelerated mode (vs real-time)")
	metricsAddr := flag.String("metrics-addr", ":9101", "address for the Prometheus /metrics endpoint (empty to disable)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.NewFromEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "config load failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	var metrics *observability.SimCollector
	if *metricsAddr != "" {
		metrics, err = observability.NewSimCollector(nil)
		if err != nil {
			log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn(ctx, "metrics server stopped", logging.String("error", err.Error()))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info(ctx, "metrics endpoint listening", logging.String("addr", *metricsAddr))
	}

	opts := core.Options{Logger: log, Epoch: time.Now().UTC()}
	if metrics != nil {
		opts.Metrics = metrics
	}
	bf, err := core.NewBattlefield(cfg, opts)
	if err != nil {
		log.Error(ctx, "battlefield init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	if *scenarioPath != "" {
		f, err := os.Open(*scenarioPath)
		if err != nil {
			log.Error(ctx, "scenario open failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		summary, err := core.LoadScenario(bf, f)
		f.Close()
		if err != nil {
			log.Error(ctx, "scenario load failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info(ctx, "scenario loaded",
			logging.String("name", summary.Name),
			logging.Int("drones", len(summary.Drones)),
			logging.Int("sensors", len(summary.Sensors)),
			logging.Int("emitters", len(summary.Emitters)),
			logging.Int("satellites", len(summary.Satellites)))
	}

	bf.StartMission()

	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(time.Now().UTC(), *tick, mode)

	tracer := otel.Tracer("ewsim/simulator")
	var tickCount uint64
	lastStatus := time.Now()

	tc.AddListener(func(simTime time.Time, dtSec float64) {
		spanCtx, span := tracer.Start(ctx, "sim.tick",
			trace.WithAttributes(
				attribute.Int64("sim.tick_count", int64(tickCount)),
				attribute.String("sim.time", simTime.Format(time.RFC3339)),
			),
		)
		bf.Tick(dtSec)
		span.End()
		tickCount++

		// Periodic status line so long runs show progress.
		if time.Since(lastStatus) >= 5*time.Second {
			lastStatus = time.Now()
			snap := bf.Snapshot()
			log.Info(spanCtx, "mission status",
				logging.String("phase", snap.Mission.Phase),
				logging.Float64("phase_remaining_sec", snap.Mission.PhaseRemaining),
				logging.Int("tactical_advantage", snap.Mission.TacticalAdvantage),
				logging.String("outcome", snap.Mission.Outcome))
		}
	})

	log.Info(ctx, "starting simulation",
		logging.String("duration", duration.String()),
		logging.String("tick", tick.String()),
		logging.String("mode", fmt.Sprintf("%v", mode)))

	if err := tc.Run(ctx, *duration); err != nil && err != context.Canceled {
		log.Error(ctx, "simulation loop failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	snap := bf.Snapshot()
	log.Info(ctx, "simulation complete",
		logging.String("phase", snap.Mission.Phase),
		logging.String("outcome", snap.Mission.Outcome),
		logging.Int("tactical_advantage", snap.Mission.TacticalAdvantage),
		logging.Int("entities", len(snap.Entities)))
}
