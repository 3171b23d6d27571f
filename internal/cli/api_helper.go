package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/imgshelf/imgshelf/internal/api"
	"github.com/imgshelf/imgshelf/internal/config"
	ihttp "github.com/imgshelf/imgshelf/internal/http"
	"github.com/imgshelf/imgshelf/internal/session"
)

// configPath returns the --config path or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file and applies env and flag overrides.
// Priority: flags > environment > config file > defaults
func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.MergeEnv()
	cfg.MergeWithFlags(apiBaseURL, token, pageSize)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if ihttp.NeedsProxyPassword(cfg) && isTerminal(os.Stdin) {
		pw, err := promptPassword(os.Stderr, fmt.Sprintf("Proxy password for %s: ", cfg.ProxyUser))
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.ProxyPassword = pw
	}
	return cfg, nil
}

// getAPIClient loads configuration and creates an API client.
func getAPIClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := api.NewClient(cfg, GetLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, cfg, nil
}

// newSession creates a session for a signed-in user.
func newSession(opts ...session.Option) (*session.Session, error) {
	client, cfg, err := getAPIClient()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	opts = append([]session.Option{
		session.WithLogger(GetLogger()),
		session.WithPageSize(cfg.PageSize),
		session.WithUploadCeiling(cfg.UploadCeilingBytes),
	}, opts...)
	return session.New(client, opts...), nil
}

// explain adds a hint to errors a user can act on.
func explain(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case api.IsAuthError(err):
		return fmt.Errorf("%w (session expired or missing; run 'imgshelf login')", err)
	case errors.Is(err, api.ErrNotFound):
		return fmt.Errorf("%w (check the folder or image id)", err)
	}
	return err
}
