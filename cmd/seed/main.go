package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/tempoedu/tempo-api/database"
)

// Standalone seeding entrypoint. The server seeds on startup as well; this
// exists so the admin identity can be provisioned before first boot.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := database.NewSeeder(store.GetDB())
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding completed. Admin identity comes from ADMIN_EMAIL and ADMIN_PASSWORD.")
}
