package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sociomanager/sociomanager/internal/models"
)

// AccountService is plain CRUD over automatable accounts. The dispatch
// core only ever reads accounts through it.
type AccountService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAccountService(db *gorm.DB, logger *zap.Logger) *AccountService {
	return &AccountService{
		db:     db,
		logger: logger,
	}
}

func (a *AccountService) Create(ctx context.Context, accounts []models.Account) error {
	if err := a.db.WithContext(ctx).Create(&accounts).Error; err != nil {
		return fmt.Errorf("failed to create accounts: %w", err)
	}
	return nil
}

// All lists accounts, optionally narrowed by a username substring and a
// platform.
func (a *AccountService) All(ctx context.Context, search string, platform models.Platform) ([]models.Account, error) {
	query := a.db.WithContext(ctx).Model(&models.Account{})

	if search != "" {
		query = query.Where("username ILIKE ?", "%"+search+"%")
	}
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}

	var accounts []models.Account
	if err := query.Order("id DESC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (a *AccountService) Get(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := a.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, fmt.Errorf("account %d not found: %w", id, err)
	}
	return &account, nil
}

// ByIDs resolves a set of account ids, silently dropping unknown ones; the
// caller decides whether an empty result is an error.
func (a *AccountService) ByIDs(ctx context.Context, ids []uint) ([]models.Account, error) {
	var accounts []models.Account
	if err := a.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve accounts: %w", err)
	}
	return accounts, nil
}

func (a *AccountService) Update(ctx context.Context, id uint, updates map[string]any) error {
	if err := a.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update account %d: %w", id, err)
	}
	return nil
}

func (a *AccountService) Delete(ctx context.Context, id uint) error {
	res := a.db.WithContext(ctx).Delete(&models.Account{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DropdownItem is the compact shape the UI account picker consumes.
type DropdownItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Dropdown lists accounts as picker entries, optionally limited to a set
// of platforms.
func (a *AccountService) Dropdown(ctx context.Context, platforms []models.Platform) ([]DropdownItem, error) {
	query := a.db.WithContext(ctx).Model(&models.Account{})
	if len(platforms) > 0 {
		query = query.Where("platform IN ?", platforms)
	}

	var accounts []models.Account
	if err := query.Order("username").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	items := make([]DropdownItem, 0, len(accounts))
	for _, acc := range accounts {
		items = append(items, DropdownItem{
			ID:   acc.ID,
			Name: fmt.Sprintf("%s (%s)", acc.Username, acc.Platform),
		})
	}
	return items, nil
}
