package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"fjacquet/gnucash2beancount/internal/logging"
)

// LoadEnv loads a .env file from the working directory or its parent, if one
// exists. Variables already set in the environment win.
func LoadEnv(logger logging.Logger) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	for _, envFile := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file", logging.F(logging.FieldFile, envFile))
			return
		}
		logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
		return
	}
}
