package app

import (
	"fmt"

	"github.com/tempoedu/tempo-api/api"
	"github.com/tempoedu/tempo-api/config"
	"github.com/tempoedu/tempo-api/database"
	"github.com/tempoedu/tempo-api/router"
)

// SetupAndRunServer loads configuration, connects storage, seeds the admin
// identity and serves the API until the process exits.
func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Seed the admin identity once; restarts are no-ops
	if err := database.NewSeeder(store.GetDB()).SeedAll(); err != nil {
		return err
	}

	// Defer closing DB
	defer store.Close()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, store, getEnv)

	// Start the Server
	return server.Run()
}
