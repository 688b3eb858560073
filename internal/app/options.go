package service

import (
	"github.com/okian/vibeverse/internal/adapters/repository"
	"github.com/okian/vibeverse/internal/domain/catalog"
	"github.com/okian/vibeverse/internal/domain/journal"
	"github.com/okian/vibeverse/internal/playback"
	"github.com/okian/vibeverse/internal/remix"
	"github.com/okian/vibeverse/internal/rhythm"
	"github.com/okian/vibeverse/pkg/logger"
)

// Option configures the Service.
type Option func(*Service)

// WithWorkerCount sets the number of leaderboard workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the result queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds how many submitted session IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the leaderboard store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalog sets the track catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithPlayer sets the playback controller.
func WithPlayer(p *playback.Controller) Option {
	return func(s *Service) {
		if p != nil {
			s.player = p
		}
	}
}

// WithGame sets the rhythm game.
func WithGame(g *rhythm.Game) Option {
	return func(s *Service) {
		if g != nil {
			s.game = g
		}
	}
}

// WithJournal sets the memory journal.
func WithJournal(j *journal.Journal) Option {
	return func(s *Service) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithRemixLab sets the remix lab. The service closes it on Stop.
func WithRemixLab(l *remix.Lab) Option {
	return func(s *Service) {
		if l != nil {
			s.lab = l
		}
	}
}
