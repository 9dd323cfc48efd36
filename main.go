package main

import (
	"school_inventory/app"
	"school_inventory/config"
	"school_inventory/routes"
)

func main() {
	cfg := config.Load()
	application := app.MustNew(cfg)
	defer application.Close()

	r := application.Router
	routes.RegisterRoutes(r, application)

	application.Log.Info("listening", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		application.Log.Error("server stopped", "error", err)
	}
}
