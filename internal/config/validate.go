package config

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

func (c *Config) Validate() error {
	// Database config
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Primary.DSN == "" {
		return errors.New("database.primary.dsn is required")
	}

	// Models config
	switch c.Models.Backend {
	case "filesystem":
		if c.Models.Dir == "" {
			return errors.New("models.dir is required when models.backend is filesystem")
		}
	case "database":
	default:
		return fmt.Errorf("models.backend must be filesystem or database, got %q", c.Models.Backend)
	}
	if c.Models.MaxFeatures <= 0 {
		return errors.New("models.max_features must be a positive integer")
	}
	if c.Models.MaxDepth <= 0 {
		return errors.New("models.max_depth must be a positive integer")
	}
	if c.Models.Estimators <= 0 {
		return errors.New("models.estimators must be a positive integer")
	}
	if c.Models.MinResolvedTickets <= 0 {
		return errors.New("models.min_resolved_tickets must be a positive integer")
	}
	if c.Models.TrainTimeout <= 0 {
		return errors.New("models.train_timeout must be a positive duration")
	}

	// Worker config
	if c.Worker.Concurrency <= 0 {
		return errors.New("worker.concurrency must be a positive integer")
	}
	if len(c.Worker.Queues) == 0 {
		return errors.New("worker.queues must define at least one queue")
	}
	for name, priority := range c.Worker.Queues {
		if name == "" {
			return errors.New("worker.queues contains an empty queue name")
		}
		if priority <= 0 {
			return fmt.Errorf("worker.queues priority for queue '%s' must be positive", name)
		}
	}

	// Server and logging
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
