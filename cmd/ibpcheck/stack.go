package main

import (
	"context"
	"io"
	"log/slog"

	cache "github.com/insidebooks/ibpcheck"
	"github.com/insidebooks/ibpcheck/config"
	"github.com/insidebooks/ibpcheck/engine"
	"github.com/insidebooks/ibpcheck/eviction"
	"github.com/insidebooks/ibpcheck/expiration"
	"github.com/insidebooks/ibpcheck/logging"
	"github.com/insidebooks/ibpcheck/provider"
	"github.com/insidebooks/ibpcheck/store"
	"github.com/insidebooks/ibpcheck/types"
	"github.com/insidebooks/ibpcheck/warnings"
	"github.com/insidebooks/ibpcheck/writepolicy"
	"github.com/pkg/errors"
)

// stack is everything a command needs, built from one config file.
type stack struct {
	cfg      *config.Config
	logger   *slog.Logger
	logs     io.Closer
	store    types.Store
	cache    *cache.InmateCache
	counters *types.Counters
	warnings *warnings.Engine
}

func openStack(ctx context.Context, path string) (*stack, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, logs, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, errors.Wrap(err, "set up logging")
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.Path, logger)
	if err != nil {
		logs.Close()
		return nil, errors.Wrap(err, "open snapshot store")
	}

	s := &stack{
		cfg:      cfg,
		logger:   logger,
		logs:     logs,
		store:    st,
		counters: &types.Counters{},
	}
	if err := s.buildCache(ctx); err != nil {
		s.Close()
		return nil, err
	}
	s.warnings = warnings.NewEngine(s.cache, cfg.Policy(), logger)
	return s, nil
}

func (s *stack) buildCache(ctx context.Context) error {
	cfg := s.cfg

	chain := make(provider.Chain, 0, len(cfg.Providers.Endpoints))
	for _, ep := range cfg.Providers.Endpoints {
		j, err := config.ParseJurisdiction(ep.Jurisdiction)
		if err != nil {
			return err
		}
		chain = append(chain, provider.NewHTTPClient(ep.BaseURL, j))
	}
	if len(chain) == 0 {
		s.logger.Warn("no providers configured, lookups will be unavailable")
	}

	var wp writepolicy.WritePolicy
	if s.store != nil {
		switch cfg.Cache.WritePolicy {
		case config.WriteThrough:
			wp = writepolicy.NewWriteThroughPolicy(s.store, s.logger)
		default:
			wp = writepolicy.NewWriteBackPolicy(s.store, cfg.Cache.WriteBuffer, s.logger)
		}
	}

	policy, err := eviction.ParsePolicyType(cfg.Cache.Eviction)
	if err != nil {
		return err
	}

	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterFetch{TTL: cfg.TTL(), IdlePeriods: cfg.Cache.IdleTTLPeriods},
		chain,
		cfg.ProviderTimeout(),
		wp,
		s.counters,
		s.logger,
	)
	s.cache = cache.NewInmateCache(cfg.Cache.Shards, cfg.Cache.Capacity, policy, eng)
	s.cache.EnableRefreshAhead(cfg.TTL(), cfg.Cache.RefreshAhead)

	if _, err := s.cache.Warm(ctx, s.store); err != nil {
		// a broken snapshot only costs the stale fallbacks
		s.logger.Warn("cache warm start failed", "error", err)
	}
	return nil
}

// Close flushes pending writes, then closes the store and the log file.
func (s *stack) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("close snapshot store", "error", err)
		}
	}
	s.logs.Close()
}
