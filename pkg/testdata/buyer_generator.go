package testdata

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/propstack/buyerbase/pkg/models"
)

// GeneratorConfig configures buyer generation parameters
type GeneratorConfig struct {
	Count        int
	OwnerID      int
	EmailChance  float64 // 0.0-1.0 probability of having an email
	NotesChance  float64
	BudgetChance float64
}

// DefaultConfig returns sensible demo-data defaults.
func DefaultConfig(ownerID, count int) GeneratorConfig {
	return GeneratorConfig{
		Count:        count,
		OwnerID:      ownerID,
		EmailChance:  0.7,
		NotesChance:  0.4,
		BudgetChance: 0.8,
	}
}

var tagPool = []string{
	"hot", "nri", "investor", "first-time", "urgent", "loan-needed",
	"cash-buyer", "relocating", "follow-up", "corporate",
}

// GenerateBuyers produces fake but valid buyer records.
func GenerateBuyers(cfg GeneratorConfig) []models.Buyer {
	out := make([]models.Buyer, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		out = append(out, generateBuyer(cfg))
	}
	return out
}

func generateBuyer(cfg GeneratorConfig) models.Buyer {
	propertyType := pick(models.PropertyTypes)

	b := models.Buyer{
		FullName:     gofakeit.Name(),
		Phone:        indianMobile(),
		City:         pick(models.Cities),
		PropertyType: propertyType,
		Purpose:      pick(models.Purposes),
		Timeline:     pick(models.Timelines),
		Source:       pick(models.Sources),
		Status:       pick(models.Statuses),
		Tags:         randomTags(),
		OwnerID:      cfg.OwnerID,
		Version:      1,
	}

	// Residential property types require a bhk.
	if propertyType == "Apartment" || propertyType == "Villa" {
		bhk := pick(models.BHKOptions)
		b.BHK = &bhk
	}

	if rand.Float64() < cfg.EmailChance {
		email := strings.ToLower(gofakeit.Username()) + "@" + gofakeit.DomainName()
		b.Email = &email
	}

	if rand.Float64() < cfg.BudgetChance {
		min := (rand.Intn(80) + 20) * 100000
		max := min + (rand.Intn(50)+10)*100000
		b.BudgetMin = &min
		b.BudgetMax = &max
	}

	if rand.Float64() < cfg.NotesChance {
		notes := gofakeit.Sentence(10)
		b.Notes = &notes
	}

	return b
}

// indianMobile generates a plausible 10-digit mobile number. Indian mobiles
// start with 6-9.
func indianMobile() string {
	return fmt.Sprintf("%d%09d", 6+rand.Intn(4), rand.Intn(1000000000))
}

func randomTags() []string {
	n := rand.Intn(3) + 1
	tags := make([]string, 0, n)
	seen := make(map[string]bool)
	for len(tags) < n {
		tag := pick(tagPool)
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

func pick(options []string) string {
	return options[rand.Intn(len(options))]
}
