// Package config loads typed configuration structs from environment
// variables (with optional .env file support) and caches each config type
// for the lifetime of the process.
//
// Configuration structs declare their environment bindings with `env` tags:
//
//	type PostgresConfig struct {
//	    ConnString string `env:"PG_CONN_URL,required"`
//	    MaxConns   int32  `env:"PG_MAX_CONNS" envDefault:"10"`
//	}
//
//	var cfg PostgresConfig
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
package config
