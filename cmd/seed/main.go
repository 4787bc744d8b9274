package main

import (
	"errors"
	"flag"
	"log"

	"gorm.io/gorm"

	"github.com/propstack/buyerbase/config"
	"github.com/propstack/buyerbase/pkg/auth"
	"github.com/propstack/buyerbase/pkg/database"
	"github.com/propstack/buyerbase/pkg/models"
	"github.com/propstack/buyerbase/pkg/testdata"
)

func main() {
	count := flag.Int("buyers", 50, "number of fake buyers to create")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("🌱 Seeding database...")

	admin := ensureUser(db.DB, cfg.AdminEmail, "Admin", "admin-password-123")
	agent := ensureUser(db.DB, "demo@buyerbase.local", "Demo Agent", "demo-password-123")

	seeded := 0
	for _, buyer := range testdata.GenerateBuyers(testdata.DefaultConfig(agent.ID, *count)) {
		b := buyer
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&b).Error; err != nil {
				return err
			}
			history := &models.BuyerHistory{
				BuyerID:     b.ID,
				ChangedByID: agent.ID,
				Diff:        models.CreatedDiff(&b),
			}
			return tx.Create(history).Error
		})
		if err != nil {
			log.Printf("Failed to create %s: %v", b.FullName, err)
			continue
		}
		seeded++
	}

	log.Printf("✅ Seeded %d buyers (admin: %s, agent: %s)", seeded, admin.Email, agent.Email)
}

func ensureUser(db *gorm.DB, email, name, password string) *models.User {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("❌ Failed to look up %s: %v", email, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	user = models.User{Email: email, Name: name, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("❌ Failed to create %s: %v", email, err)
	}

	log.Printf("👤 Created user %s", email)
	return &user
}
