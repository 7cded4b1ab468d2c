package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/tempoedu/tempo-api/config"
	"github.com/tempoedu/tempo-api/model"
	"github.com/tempoedu/tempo-api/utils/auth"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the administrator identity once. The admin logs in
// through the same hashed-credential path as every other user; lookup before
// create keeps restarts from duplicating the record.
func (s *Seeder) SeedAdminUser() error {
	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", getEnv.ADMIN_EMAIL).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	password := getEnv.ADMIN_PASSWORD
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set to seed the admin user")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Name:         "Tempo Admin",
		Email:        getEnv.ADMIN_EMAIL,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Admin user created")
	return nil
}
