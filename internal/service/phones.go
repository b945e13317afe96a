package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sociomanager/sociomanager/internal/geelark"
	"github.com/sociomanager/sociomanager/internal/models"
)

type phoneLister interface {
	ListPhones(ctx context.Context, page, pageSize int) ([]geelark.PhoneInfo, error)
}

// PhoneService keeps a local cache of the remote cloud-phone inventory.
type PhoneService struct {
	db     *gorm.DB
	api    phoneLister
	logger *zap.Logger
}

func NewPhoneService(db *gorm.DB, api phoneLister, logger *zap.Logger) *PhoneService {
	return &PhoneService{
		db:     db,
		api:    api,
		logger: logger,
	}
}

func (p *PhoneService) All(ctx context.Context) ([]models.Phone, error) {
	var phones []models.Phone
	if err := p.db.WithContext(ctx).Order("serial_name").Find(&phones).Error; err != nil {
		return nil, fmt.Errorf("failed to list phones: %w", err)
	}
	return phones, nil
}

// Dropdown lists phones as picker entries.
func (p *PhoneService) Dropdown(ctx context.Context) ([]DropdownItem, error) {
	phones, err := p.All(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]DropdownItem, 0, len(phones))
	for _, phone := range phones {
		items = append(items, DropdownItem{
			ID:   phone.ID,
			Name: fmt.Sprintf("%s - %s", phone.SerialName, phone.Brand),
		})
	}
	return items, nil
}

// Refresh replaces the cached inventory with the remote one wholesale.
func (p *PhoneService) Refresh(ctx context.Context) (int, error) {
	remote, err := p.api.ListPhones(ctx, 1, 100)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch phone inventory: %w", err)
	}

	phones := make([]models.Phone, 0, len(remote))
	for _, info := range remote {
		phones = append(phones, models.Phone{
			MobileID:   info.MobileID,
			SerialName: info.SerialName,
			Brand:      info.Brand,
			Model:      info.Model,
			OSVersion:  info.OSVersion,
		})
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Phone{}).Error; err != nil {
			return fmt.Errorf("failed to clear phone cache: %w", err)
		}
		if len(phones) == 0 {
			return nil
		}
		if err := tx.Create(&phones).Error; err != nil {
			return fmt.Errorf("failed to store phones: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	p.logger.Info("Phone inventory refreshed", zap.Int("phones", len(phones)))
	return len(phones), nil
}
