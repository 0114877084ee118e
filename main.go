package main

import (
	"github.com/avkorolev/yatube/config"
	"github.com/avkorolev/yatube/routes"
	"github.com/avkorolev/yatube/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	// Connects and applies the ordered schema migrations; fatal on failure.
	db := config.InitDatabase()

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
