package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"dgastack/internal/cfg"
	"dgastack/internal/dataset"
	"dgastack/internal/ingest"
	"dgastack/internal/metrics"
	"dgastack/internal/ml"
	"dgastack/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	pipeline, err := initializePipeline(ctx, c, store, mw, m)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline initialization failed")
	}

	startMetricsServer(ctx, c)

	var wg sync.WaitGroup
	if c.StreamURL != "" {
		domains := make(chan ingest.Domain, 64)
		errs := make(chan error, 32)

		startStream(ctx, &wg, c, domains, errs)
		startErrorHandler(ctx, &wg, errs, m)
		startClassifier(ctx, &wg, pipeline, store, domains, m)
	} else {
		log.Info().Msg("no stream URL configured, running idle with metrics only")
	}

	waitForShutdown(ctx, cancel, &wg)
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// initializeStorage opens the database if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath != "" {
		store, err := storage.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
			return nil
		}
		return store
	}
	return nil
}

// initializePipeline loads saved artifacts when available, otherwise
// trains from the configured corpora and saves the result.
func initializePipeline(ctx context.Context, c cfg.Settings, store *storage.Store, mw *metrics.Wrapper, m *metrics.Metrics) (*ml.Pipeline, error) {
	if store != nil {
		artifacts, err := store.LoadArtifacts()
		switch {
		case err == nil:
			pipeline, err := ml.RestorePipeline(artifacts, mw)
			if err != nil {
				return nil, fmt.Errorf("restore pipeline: %w", err)
			}
			m.ModelAge.Set(time.Since(artifacts.TrainedAt).Seconds())
			log.Info().Time("trained_at", artifacts.TrainedAt).Msg("restored pipeline from stored artifacts")
			return pipeline, nil
		case errors.Is(err, storage.ErrNoArtifacts):
			log.Info().Msg("no stored artifacts, training from corpora")
		default:
			return nil, fmt.Errorf("load artifacts: %w", err)
		}
	}

	if !c.CanTrain() {
		return nil, fmt.Errorf("no stored artifacts and no training corpora configured")
	}

	corpus, err := loadCorpus(ctx, c)
	if err != nil {
		return nil, err
	}

	trainer, err := ml.NewTrainer(ml.TrainerConfig{
		HoldoutRatio: c.HoldoutRatio,
		Seed:         c.Seed,
		StripSuffix:  c.StripSuffix,
		Truncate:     c.TruncatePolicy(),
		Metrics:      mw,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pipeline, err := trainer.Train(corpus.Domains, corpus.Labels)
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}
	m.TrainingDuration.Set(time.Since(start).Seconds())

	if store != nil {
		artifacts, err := pipeline.Snapshot()
		if err != nil {
			log.Warn().Err(err).Msg("pipeline not snapshottable, skipping artifact save")
		} else if err := store.SaveArtifacts(artifacts); err != nil {
			log.Warn().Err(err).Msg("artifact save failed")
		} else {
			log.Info().Msg("saved trained artifacts")
		}
	}
	return pipeline, nil
}

// loadCorpus assembles the labeled corpus from the configured sources.
func loadCorpus(ctx context.Context, c cfg.Settings) (*dataset.Corpus, error) {
	corpus := &dataset.Corpus{}

	benign, err := dataset.LoadDomainList(c.BenignPath)
	if err != nil {
		return nil, err
	}
	corpus.Append(benign, 0)

	dga, err := dataset.LoadDomainList(c.DGAPath)
	if err != nil {
		return nil, err
	}
	corpus.Append(dga, 1)

	if c.TrancoPath != "" {
		ranked, err := dataset.LoadRankedList(c.TrancoPath, c.TrancoTopN)
		if err != nil {
			return nil, err
		}
		corpus.Append(ranked, 0)
	}

	if c.FeedURL != "" {
		fetcher := dataset.NewFetcher(c.HTTPTimeout)
		feed, err := fetcher.FetchDomainList(ctx, c.FeedURL)
		if err != nil {
			log.Warn().Err(err).Msg("feed fetch failed, training without it")
		} else {
			corpus.Append(feed, 1)
		}
	}

	log.Info().Int("samples", corpus.Len()).Msg("training corpus assembled")
	return corpus, nil
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// startStream starts the domain feed consumer
func startStream(ctx context.Context, wg *sync.WaitGroup, c cfg.Settings, domains chan ingest.Domain, errs chan error) {
	stream := ingest.NewStream(c.StreamURL)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := stream.Run(ctx, domains, errs, c.Ping); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("domain stream ended")
			errs <- err
		}
	}()
}

// startErrorHandler drains background errors into logs and metrics
func startErrorHandler(ctx context.Context, wg *sync.WaitGroup, errs chan error, m *metrics.Metrics) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				log.Error().Err(err).Msg("background error")
				m.StreamReconnects.Inc()
				m.ErrorsTotal.Inc()
			}
		}
	}()
}

// startClassifier classifies streamed domains and logs the verdicts
func startClassifier(ctx context.Context, wg *sync.WaitGroup, pipeline *ml.Pipeline, store *storage.Store, domains chan ingest.Domain, m *metrics.Metrics) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-domains:
				m.DomainsIngested.Inc()

				verdict, err := pipeline.Predict(ctx, d.Name)
				if err != nil {
					log.Warn().Str("domain", d.Name).Err(err).Msg("classification failed")
					continue
				}

				if verdict.Label == ml.LabelDGA {
					log.Info().
						Str("domain", d.Name).
						Str("source", d.Source).
						Float64("confidence", verdict.Confidence).
						Msg("dga domain detected")
				}

				if store != nil {
					rec := storage.VerdictRecord{
						Domain:    d.Name,
						Verdict:   verdict,
						Source:    d.Source,
						Timestamp: d.Ts,
					}
					if err := store.StoreVerdict(rec); err != nil {
						log.Warn().Err(err).Msg("verdict store failed")
					}
				}
			}
		}
	}()
}

// waitForShutdown waits for shutdown signals and handles graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
