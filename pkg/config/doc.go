// Package config loads typed configuration from the environment.
//
// Structs describe their variables with caarlos0/env tags; Load optionally
// reads dotenv files first so local development can keep settings in .env.
//
//	var cfg struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8000"`
//	}
//	config.MustLoad(&cfg)
//
// Every call parses the environment again. Callers that need a single
// snapshot load once at startup and pass the struct down.
package config
