package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductTag drives personalized recommendation matching. Invisible tags are
// used for scoring only and never rendered.
type ProductTag struct {
	Name              string   `json:"name"`
	Visible           bool     `json:"visible"`
	SystemTargets     []string `json:"systemTargets,omitempty"`
	BiomarkerTargets  []string `json:"biomarkerTargets,omitempty"`
	AgingStageTargets []string `json:"agingStageTargets,omitempty"`
}

// MarketplaceProduct is one entry of the biohacking catalog.
type MarketplaceProduct struct {
	ID                  string                          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name                string                          `gorm:"not null" json:"name"`
	Category            string                          `gorm:"index" json:"category"`
	Type                string                          `json:"type"`
	Price               float64                         `json:"price"`
	Currency            string                          `gorm:"default:'EUR'" json:"currency"`
	Description         string                          `gorm:"type:text" json:"description"`
	DetailedDescription string                          `gorm:"type:text" json:"detailedDescription,omitempty"`
	Image               string                          `json:"image,omitempty"`
	DisplayType         string                          `gorm:"default:'grid'" json:"displayType"`
	BillingModel        string                          `gorm:"default:'one-time'" json:"billingModel"`
	ExternalLink        string                          `json:"externalLink,omitempty"`
	PrimarySystem       string                          `json:"primarySystem,omitempty"`
	SecondarySystems    datatypes.JSONSlice[string]     `json:"secondarySystems,omitempty"`
	ClinicalReferences  datatypes.JSONSlice[string]     `json:"clinicalReferences,omitempty"`
	Tags                datatypes.JSONSlice[ProductTag] `json:"tags"`
	IsActive            bool                            `gorm:"default:true;index" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for MarketplaceProduct model
func (MarketplaceProduct) TableName() string {
	return "marketplace_products"
}
