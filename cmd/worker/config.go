package main

import (
	"log"

	"technest-backend/pkg/container"
)

// Config holds the worker's own knobs, extracted from the shared
// application config.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func loadConfig(c *container.Container) *Config {
	cfg := &Config{
		RedisAddr:     c.Config.Redis.Host,
		RedisPassword: c.Config.Redis.Password,
		RedisDB:       c.Config.Redis.DB,
	}

	log.Printf("[Config] Redis: %s, SMTP: %s:%s",
		cfg.RedisAddr, c.Config.SMTP.Host, c.Config.SMTP.Port)

	return cfg
}
