// Package store is the persistence layer: a gorm-backed implementation used by
// the HTTP handlers and the extraction pipeline, plus an in-memory variant for
// tests.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/systemage/systemagego/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// GormStore implements all persistence operations on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store around an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ---- Reports ----

// CreateReport inserts a new report row (normally in pending status).
func (s *GormStore) CreateReport(ctx context.Context, report *models.Report) error {
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetReport loads a report without its relations.
func (s *GormStore) GetReport(ctx context.Context, reportID string) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).First(&report, "id = ?", reportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &report, nil
}

// GetReportWithRelations loads a report with its body systems and
// recommendations preloaded.
func (s *GormStore) GetReportWithRelations(ctx context.Context, reportID string) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).
		Preload("Systems").
		Preload("Recommendations").
		First(&report, "id = ?", reportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &report, nil
}

// ListReports returns all reports of a user, newest first.
func (s *GormStore) ListReports(ctx context.Context, userID string) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// LatestCompletedReport returns the user's newest report with completed
// extraction, relations preloaded, or ErrNotFound when there is none.
func (s *GormStore) LatestCompletedReport(ctx context.Context, userID string) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).
		Preload("Systems").
		Preload("Recommendations").
		Where("user_id = ? AND extraction_status = ?", userID, string(models.ExtractionCompleted)).
		Order("created_at DESC").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest report: %w", err)
	}
	return &report, nil
}

// ClaimReport atomically moves a pending or failed report into processing.
// The conditional update makes concurrent claims race-free: exactly one caller
// sees RowsAffected == 1.
func (s *GormStore) ClaimReport(ctx context.Context, reportID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND extraction_status IN ?", reportID,
			[]string{string(models.ExtractionPending), string(models.ExtractionFailed)}).
		Update("extraction_status", string(models.ExtractionProcessing))
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim report: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// UpdateReport applies a column patch to a report row.
func (s *GormStore) UpdateReport(ctx context.Context, reportID string, patch map[string]interface{}) error {
	err := s.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ?", reportID).
		Updates(patch).Error
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	return nil
}

// DeleteReport soft-deletes a report and hard-deletes its child rows.
func (s *GormStore) DeleteReport(ctx context.Context, reportID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", reportID).Delete(&models.BodySystem{}).Error; err != nil {
			return fmt.Errorf("failed to delete body systems: %w", err)
		}
		if err := tx.Where("report_id = ?", reportID).Delete(&models.Recommendation{}).Error; err != nil {
			return fmt.Errorf("failed to delete recommendations: %w", err)
		}
		if err := tx.Delete(&models.Report{}, "id = ?", reportID).Error; err != nil {
			return fmt.Errorf("failed to delete report: %w", err)
		}
		return nil
	})
}

// CountBodySystems counts the extracted system rows of a report.
func (s *GormStore) CountBodySystems(ctx context.Context, reportID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.BodySystem{}).
		Where("report_id = ?", reportID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count body systems: %w", err)
	}
	return count, nil
}

// InsertBodySystems bulk-inserts system rows.
func (s *GormStore) InsertBodySystems(ctx context.Context, systems []models.BodySystem) error {
	if len(systems) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&systems).Error; err != nil {
		return fmt.Errorf("failed to insert body systems: %w", err)
	}
	return nil
}

// CountRecommendations counts the extracted recommendation rows of a report.
func (s *GormStore) CountRecommendations(ctx context.Context, reportID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Recommendation{}).
		Where("report_id = ?", reportID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return count, nil
}

// InsertRecommendations bulk-inserts recommendation rows.
func (s *GormStore) InsertRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&recs).Error; err != nil {
		return fmt.Errorf("failed to insert recommendations: %w", err)
	}
	return nil
}

// ---- Marketplace products ----

// ListProducts returns catalog entries, optionally restricted to active ones.
func (s *GormStore) ListProducts(ctx context.Context, activeOnly bool) ([]models.MarketplaceProduct, error) {
	query := s.db.WithContext(ctx).Order("category, name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var products []models.MarketplaceProduct
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct loads one catalog entry.
func (s *GormStore) GetProduct(ctx context.Context, productID string) (*models.MarketplaceProduct, error) {
	var product models.MarketplaceProduct
	err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

// CreateProduct inserts a catalog entry.
func (s *GormStore) CreateProduct(ctx context.Context, product *models.MarketplaceProduct) error {
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct saves all fields of a catalog entry.
func (s *GormStore) UpdateProduct(ctx context.Context, product *models.MarketplaceProduct) error {
	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// DeleteProduct soft-deletes a catalog entry.
func (s *GormStore) DeleteProduct(ctx context.Context, productID string) error {
	result := s.db.WithContext(ctx).Delete(&models.MarketplaceProduct{}, "id = ?", productID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Users ----

// CreateUser inserts a new account.
func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail loads an account by email.
func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// GetUserByID loads an account by id.
func (s *GormStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// SaveUser persists changes on a loaded account.
func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// ListUsers returns all accounts, newest first.
func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ---- Chat ----

// GetOrCreateConversation returns the conversation tied to a report, creating
// it on first use.
func (s *GormStore) GetOrCreateConversation(ctx context.Context, userID, reportID string) (*models.ChatConversation, error) {
	var conv models.ChatConversation
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND report_id = ?", userID, reportID).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	conv = models.ChatConversation{UserID: userID, ReportID: reportID}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

// ListMessages returns a conversation's messages in chronological order.
func (s *GormStore) ListMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// AppendMessage stores one chat message.
func (s *GormStore) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}
