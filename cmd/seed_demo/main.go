// Seeds a demo marketplace catalog and an admin account into an empty
// database, so a fresh install has something to show.
package main

import (
	"fmt"
	"log"

	"gorm.io/datatypes"

	"github.com/systemage/systemagego/internal/config"
	"github.com/systemage/systemagego/internal/database"
	"github.com/systemage/systemagego/internal/models"
	"github.com/systemage/systemagego/internal/utils"
)

func main() {
	fmt.Println("🌱 SystemAge Demo Data Seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.BodySystem{},
		&models.Recommendation{},
		&models.MarketplaceProduct{},
		&models.ChatConversation{},
		&models.ChatMessage{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	// Check if data already exists
	var productCount int64
	db.Model(&models.MarketplaceProduct{}).Count(&productCount)
	if productCount > 0 {
		fmt.Printf("⚠️  Database already has %d products. Clear it first? (y/N): ", productCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}
		db.Exec("DELETE FROM marketplace_products")
	}

	seedAdmin(db)
	seedProducts(db)

	fmt.Println("🎉 Done")
}

func seedAdmin(db *database.DB) {
	var count int64
	db.Model(&models.User{}).Where("email = ?", "admin@systemage.local").Count(&count)
	if count > 0 {
		fmt.Println("ℹ️  Admin account already exists, skipping")
		return
	}

	hash, err := utils.HashPassword("changeme123")
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}
	admin := models.User{
		Email:    "admin@systemage.local",
		Password: hash,
		Name:     "Admin",
		Role:     "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("❌ Failed to create admin: %v", err)
	}
	fmt.Println("✅ Admin account created (admin@systemage.local / changeme123)")
}

func seedProducts(db *database.DB) {
	products := []models.MarketplaceProduct{
		{
			Name:          "Omega-3 Complex",
			Category:      "supplements",
			Type:          "product",
			Price:         29.90,
			Description:   "High-dose EPA/DHA fish oil for cardiovascular support.",
			PrimarySystem: "Cardiac System",
			Tags: datatypes.NewJSONSlice([]models.ProductTag{
				{Name: "cardio", SystemTargets: []string{"Cardiac System", "Blood and Vascular System"}},
			}),
		},
		{
			Name:          "Probiotic 50B",
			Category:      "supplements",
			Type:          "product",
			Price:         39.00,
			Description:   "Multi-strain probiotic for gut flora balance.",
			PrimarySystem: "Digestive System",
			Tags: datatypes.NewJSONSlice([]models.ProductTag{
				{Name: "gut", SystemTargets: []string{"Digestive System", "Immune System"}},
			}),
		},
		{
			Name:          "Zone 2 Coaching Plan",
			Category:      "coaching",
			Type:          "service",
			Price:         89.00,
			BillingModel:  "subscription",
			Description:   "12-week aerobic base building program with a coach.",
			PrimarySystem: "Respiratory System",
			Tags: datatypes.NewJSONSlice([]models.ProductTag{
				{Name: "endurance", SystemTargets: []string{"Respiratory System", "Cardiac System", "Metabolism"}},
			}),
		},
		{
			Name:          "Curcumin Phytosome",
			Category:      "supplements",
			Type:          "product",
			Price:         24.50,
			Description:   "Bioavailable curcumin for inflammatory balance.",
			PrimarySystem: "Inflammatory Regulation",
			Tags: datatypes.NewJSONSlice([]models.ProductTag{
				{Name: "inflammation", SystemTargets: []string{"Inflammatory Regulation"}, AgingStageTargets: []string{"Accelerated"}},
			}),
		},
		{
			Name:          "Sleep & Recovery Protocol",
			Category:      "protocols",
			Type:          "service",
			Price:         0,
			Description:   "Guided sleep hygiene protocol for cognitive recovery.",
			PrimarySystem: "Brain Health and Cognition",
			Tags: datatypes.NewJSONSlice([]models.ProductTag{
				{Name: "cognition", SystemTargets: []string{"Brain Health and Cognition", "Neurodegeneration"}},
			}),
		},
	}

	for _, product := range products {
		if err := db.Create(&product).Error; err != nil {
			log.Fatalf("❌ Failed to seed product %s: %v", product.Name, err)
		}
	}
	fmt.Printf("✅ Seeded %d marketplace products\n", len(products))
}
