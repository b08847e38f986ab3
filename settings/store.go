package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/amonks/fileconverter/api"
)

// Remote is the part of the service API the store needs.
type Remote interface {
	CheckConfig(ctx context.Context) (api.ConfigStatus, error)
	SaveConfig(ctx context.Context, request api.SaveConfigRequest) error
}

// Status reports what configuration the service holds.
type Status struct {
	ConfigPresent  bool
	SecretsPresent bool
	Configuration  Configuration
}

// Complete reports whether the service holds both the config and the secrets.
func (s Status) Complete() bool {
	return s.ConfigPresent && s.SecretsPresent
}

// StatusFromAPI converts a config check response.
func StatusFromAPI(response api.ConfigStatus) Status {
	cfg := Configuration{
		TNumber:      response.Secrets.TNumber,
		Endpoint:     response.Secrets.Endpoint,
		APIKey:       response.Secrets.APIKey,
		APIVersion:   response.Secrets.APIVersion,
		ModelName:    response.Secrets.ModelName,
		PackagerMode: PackagerMode(response.Config.PackagerMode),
	}
	return Status{
		ConfigPresent:  response.ConfigExists,
		SecretsPresent: response.SecretsExists,
		Configuration:  cfg.Normalized(),
	}
}

// Store is the single writer of the configuration. It remembers the last
// status the service confirmed.
type Store struct {
	remote Remote

	mu     sync.Mutex
	last   Status
	loaded bool
}

// NewStore creates a store backed by remote.
func NewStore(remote Remote) *Store {
	return &Store{remote: remote}
}

// Check queries the service for its configuration.
func (s *Store) Check(ctx context.Context) (Status, error) {
	response, err := s.remote.CheckConfig(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("check configuration: %w", err)
	}
	status := StatusFromAPI(response)

	s.mu.Lock()
	s.last = status
	s.loaded = true
	s.mu.Unlock()

	return status, nil
}

// Last returns the last status confirmed by the service.
func (s *Store) Last() (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.loaded
}

// Save validates cfg and stores it on the service. Invalid configurations
// never reach the service. When the service rejects the save the last known
// status is kept.
func (s *Store) Save(ctx context.Context, cfg Configuration) error {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return err
	}

	request := api.SaveConfigRequest{
		PackagerMode: string(cfg.PackagerMode),
		TNumber:      cfg.TNumber,
		APIKey:       cfg.APIKey,
		Endpoint:     cfg.Endpoint,
		ModelName:    cfg.ModelName,
		APIVersion:   cfg.APIVersion,
	}
	if err := s.remote.SaveConfig(ctx, request); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}

	s.mu.Lock()
	s.last = Status{ConfigPresent: true, SecretsPresent: true, Configuration: cfg}
	s.loaded = true
	s.mu.Unlock()

	return nil
}
