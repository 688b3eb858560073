package main

import (
	"context"
	"fmt"

	"github.com/okian/vibeverse/internal/adapters/audio"
	"github.com/okian/vibeverse/internal/adapters/repository"
	app "github.com/okian/vibeverse/internal/app"
	"github.com/okian/vibeverse/internal/config"
	"github.com/okian/vibeverse/internal/domain/catalog"
	"github.com/okian/vibeverse/internal/domain/journal"
	"github.com/okian/vibeverse/internal/domain/scoring"
	"github.com/okian/vibeverse/internal/playback"
	"github.com/okian/vibeverse/internal/remix"
	"github.com/okian/vibeverse/internal/rhythm"
	"github.com/okian/vibeverse/pkg/logger"
)

// buildService assembles the service from cfg. The leaderboard store is
// owned by the service once Start has run.
func buildService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	player, err := buildPlayer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(logger.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithCatalog(cat),
		app.WithPlayer(player),
		app.WithGame(buildGame(cfg)),
		app.WithStore(store),
		app.WithJournal(journal.New(journal.WithMaxEntries(cfg.JournalMaxEntries))),
		app.WithRemixLab(remix.New(
			remix.WithDelay(cfg.RemixDelay()),
			remix.WithMaxBytes(cfg.RemixMaxBytes),
			remix.WithMaxJobs(cfg.RemixMaxJobs),
		)),
	)
}

// buildPlayer opens the output device when audio is enabled. Without a
// device every track plays in the synthesized mode and tones are dropped.
func buildPlayer(ctx context.Context, cfg *config.Config) (*playback.Controller, error) {
	log := logger.Named("main")
	opts := []playback.Option{
		playback.WithReadyTimeout(cfg.ReadyTimeout()),
		playback.WithTick(cfg.PlaybackTick()),
		playback.WithVolume(cfg.DefaultVolume),
	}
	if !cfg.AudioEnabled {
		log.Info(ctx, "audio disabled; playback is synthesized and silent")
		return playback.New(audio.Unavailable{}, audio.Silent{}, opts...), nil
	}

	dev, err := audio.NewDevice(cfg.SampleRate)
	if err != nil {
		log.Warn(ctx, "no audio device; playback is synthesized and silent", logger.Error(err))
		return playback.New(audio.Unavailable{}, audio.Silent{}, opts...), nil
	}

	fetchOpts := []audio.FetchOption{audio.WithMaxBytes(cfg.FetchMaxBytes)}
	if cfg.MinioEndpoint != "" {
		store, err := audio.NewObjectStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("failed to create object store client: %w", err)
		}
		fetchOpts = append(fetchOpts, audio.WithObjectStore(store))
		log.Info(ctx, "s3 track sources enabled", logger.String("endpoint", cfg.MinioEndpoint))
	}
	return playback.New(audio.NewDecoder(dev, audio.NewFetcher(fetchOpts...)), dev, opts...), nil
}

func buildGame(cfg *config.Config) *rhythm.Game {
	judge := scoring.NewJudge(
		scoring.WithWindow(cfg.HitWindowStart, cfg.HitWindowEnd),
		scoring.WithMissPenalty(cfg.MissPenalty),
	)
	return rhythm.New(
		rhythm.WithJudge(judge),
		rhythm.WithTick(cfg.GameTick()),
		rhythm.WithBeatStep(cfg.BeatStep),
	)
}

func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.LeaderboardBackend != config.BackendRedis {
		return repository.NewTreapStore(ctx), nil
	}
	client, err := repository.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	logger.Named("main").Info(ctx, "using redis store", logger.String("addr", cfg.RedisAddr))
	return repository.NewRedisStore(client), nil
}
