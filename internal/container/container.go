// Package container provides dependency injection for g2b.
// It centralizes the creation and wiring of the logger, the conversion
// pipeline and the verifier so commands receive them ready to use.
package container

import (
	"fmt"

	"fjacquet/gnucash2beancount/internal/config"
	"fjacquet/gnucash2beancount/internal/converter"
	"fjacquet/gnucash2beancount/internal/logging"
	"fjacquet/gnucash2beancount/internal/verifier"
)

// Container holds the application dependencies. It is immutable after
// creation; dependencies are reached through getters.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	converter *converter.Converter
	verifier  *verifier.Verifier
}

// NewContainer creates a container whose logger follows the converter
// section of cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger := logging.NewLogrusAdapter(cfg.Converter.LogLevel, cfg.Converter.LogFormat)
	return NewContainerWithLogger(cfg, logger)
}

// NewContainerWithLogger wires the dependencies around an existing logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	logger = logger.WithField(logging.FieldConfigFile, cfg.Path)
	c := &Container{
		logger:    logger,
		config:    cfg,
		converter: converter.New(cfg, logger),
		verifier:  verifier.NewVerifier(logger),
	}

	logger.Debug("Container initialized successfully",
		logging.F("default_currency", cfg.GnuCash.DefaultCurrency),
		logging.F("rename_rules", len(cfg.RenameRules)))
	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the resolved configuration.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetConverter returns the conversion pipeline.
func (c *Container) GetConverter() *converter.Converter {
	return c.converter
}

// GetVerifier returns the ledger verifier.
func (c *Container) GetVerifier() *verifier.Verifier {
	return c.verifier
}
