// Package config provides a type-safe, generic and cached way to load
// application configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11 to
// deliver a convenient API that:
//
//   - Loads values from one or multiple .env files (falling back to the
//     default .env in the current working directory).
//   - Parses the environment into any Go struct using field tags.
//   - Caches each successfully loaded configuration type so it is parsed
//     only once per process.
//
// Usage:
//
//	type AppConfig struct {
//		Port int    `env:"PORT" envDefault:"8080"`
//		Env  string `env:"APP_ENV" envDefault:"development"`
//	}
//
//	var cfg AppConfig
//	config.MustLoad(&cfg)
package config
