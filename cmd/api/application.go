package main

import (
	"log/slog"
	"moviehub/proj/internal/config"
	"moviehub/proj/internal/services"
)

type Application struct {
	cfg      *config.Config
	log      *slog.Logger
	Http     *Http
	services *services.Services
}

func NewApplication(cfg *config.Config, log *slog.Logger, services *services.Services) *Application {
	return &Application{
		cfg:      cfg,
		log:      log,
		services: services,
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
}
