package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iksnae/darkscan/internal"
	"github.com/iksnae/darkscan/internal/config"
)

// app is the per-invocation session: config, store, cache and pipeline
type app struct {
	cfg      *config.Config
	store    *internal.SessionStore
	cache    *internal.AnalysisCache
	client   *internal.Client
	pipeline *internal.Pipeline
}

// offlineService stands in for the client when no base URL is configured
type offlineService struct{}

func (offlineService) Analyze(context.Context, internal.EncodedImage, internal.Language) (*internal.Analysis, error) {
	return nil, config.ErrMissingBaseURL
}

func (offlineService) FetchHistory(context.Context) ([]internal.Analysis, error) {
	return nil, config.ErrMissingBaseURL
}

// loadConfig reads configuration and applies command-line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile})
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.Service.BaseURL = strings.TrimSpace(baseURL)
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	if !verbose {
		internal.SetLogLevel(internal.ParseLogLevel(cfg.App.LogLevel))
	}
	return cfg, nil
}

// openApp builds the session for one command. When needService is set a
// missing base URL fails before anything else happens.
func openApp(ctx context.Context, needService bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if needService {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	a := &app{
		cfg:   cfg,
		store: internal.NewSessionStore(),
	}
	a.store.SetLanguage(a.preferredLanguage())

	cache, err := internal.OpenAnalysisCache(ctx, cfg.Cache.Dir)
	if err != nil {
		internal.LogWarn("Local cache unavailable, continuing without it: %v", err)
	} else {
		a.cache = cache
		if err := cache.Restore(ctx, a.store); err != nil {
			internal.LogWarn("Failed to restore cached session: %v", err)
		}
	}

	var svc internal.AnalysisService = offlineService{}
	if cfg.Service.BaseURL != "" {
		client, err := internal.NewClient(cfg.Service.BaseURL, internal.WithTimeout(cfg.Service.Timeout))
		if err != nil {
			a.close()
			return nil, err
		}
		a.client = client
		svc = client
	}
	a.pipeline = internal.NewPipeline(svc, a.store)
	return a, nil
}

// preferredLanguage is the saved preference, else the configured default
func (a *app) preferredLanguage() internal.Language {
	if _, err := os.Stat(internal.SettingsPath(a.cfg.Cache.Dir)); err == nil {
		settings, err := internal.LoadSettings(a.cfg.Cache.Dir)
		if err == nil {
			return settings.Language
		}
		internal.LogWarn("Failed to load settings: %v", err)
	}
	return a.cfg.DefaultLanguage()
}

// requireClient returns the client or ErrMissingBaseURL
func (a *app) requireClient() (*internal.Client, error) {
	if a.client == nil {
		return nil, config.ErrMissingBaseURL
	}
	return a.client, nil
}

// persist writes the session back to the cache
func (a *app) persist(ctx context.Context) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Persist(ctx, a.store); err != nil {
		internal.LogWarn("Failed to update local cache: %v", err)
	}
}

func (a *app) close() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil {
		internal.LogDebug("Failed to close cache: %v", err)
	}
	a.cache = nil
}

// finish persists and closes
func (a *app) finish(ctx context.Context) {
	a.persist(ctx)
	a.close()
}

// describeError adds a hint for the request failure categories
func describeError(err error) string {
	var reqErr *internal.RequestError
	switch {
	case errors.Is(err, internal.ErrAnalysisInFlight):
		return "an analysis is already running"
	case errors.As(err, &reqErr):
		switch reqErr.Kind {
		case internal.KindNetwork:
			return "could not reach the analysis service; check your connection and try again"
		case internal.KindServiceRejected:
			return fmt.Sprintf("the analysis service refused the request (HTTP %d)", reqErr.Status)
		case internal.KindMalformedResponse:
			return "the analysis service returned an unexpected response"
		}
	}
	var encErr *internal.EncodingError
	if errors.As(err, &encErr) {
		return "the image could not be read"
	}
	return ""
}

// withHint wraps err with a user-facing hint when one applies
func withHint(err error) error {
	if hint := describeError(err); hint != "" {
		return fmt.Errorf("%w (%s)", err, hint)
	}
	return err
}
