package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
)

// SettingsDTO is the transport shape of the company profile.
type SettingsDTO struct {
	CompanyName        string          `json:"company_name"`
	Address            string          `json:"address"`
	Phone              string          `json:"phone"`
	Email              string          `json:"email"`
	GSTIN              string          `json:"gstin"`
	DefaultGSTRate     decimal.Decimal `json:"default_gst_rate"`
	ApplyGSTOnPurchase bool            `json:"apply_gst_on_purchase"`
	FinancialYearStart time.Time       `json:"financial_year_start"`
	FinancialYearEnd   time.Time       `json:"financial_year_end"`
	LowStockAlerts     bool            `json:"low_stock_alerts"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// UpdateSettingsInput carries the mutable fields; nil means unchanged.
type UpdateSettingsInput struct {
	CompanyName        *string          `json:"company_name"`
	Address            *string          `json:"address"`
	Phone              *string          `json:"phone"`
	Email              *string          `json:"email"`
	GSTIN              *string          `json:"gstin"`
	DefaultGSTRate     *decimal.Decimal `json:"default_gst_rate"`
	ApplyGSTOnPurchase *bool            `json:"apply_gst_on_purchase"`
	FinancialYearStart *time.Time       `json:"financial_year_start"`
	FinancialYearEnd   *time.Time       `json:"financial_year_end"`
	LowStockAlerts     *bool            `json:"low_stock_alerts"`
}

type repository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, updates map[string]any) (*models.Settings, error)
}

// Service reads and updates the company settings.
type Service interface {
	Get(ctx context.Context) (*SettingsDTO, error)
	Update(ctx context.Context, input UpdateSettingsInput) (*SettingsDTO, error)
}

type service struct {
	repo repository
}

// NewService builds the settings service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context) (*SettingsDTO, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings row missing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return fromModel(row), nil
}

func (s *service) Update(ctx context.Context, input UpdateSettingsInput) (*SettingsDTO, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings row missing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}

	updates := map[string]any{}
	if input.CompanyName != nil {
		name := strings.TrimSpace(*input.CompanyName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name cannot be empty")
		}
		updates["company_name"] = name
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.GSTIN != nil {
		updates["gstin"] = strings.ToUpper(strings.TrimSpace(*input.GSTIN))
	}
	if input.DefaultGSTRate != nil {
		if input.DefaultGSTRate.IsNegative() || input.DefaultGSTRate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "default gst rate must be between 0 and 100")
		}
		updates["default_gst_rate"] = *input.DefaultGSTRate
	}
	if input.ApplyGSTOnPurchase != nil {
		updates["apply_gst_on_purchase"] = *input.ApplyGSTOnPurchase
	}

	start := current.FinancialYearStart
	end := current.FinancialYearEnd
	if input.FinancialYearStart != nil {
		start = *input.FinancialYearStart
	}
	if input.FinancialYearEnd != nil {
		end = *input.FinancialYearEnd
	}
	if !start.Before(end) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "financial year start must precede its end")
	}
	if input.FinancialYearStart != nil {
		updates["financial_year_start"] = start
	}
	if input.FinancialYearEnd != nil {
		updates["financial_year_end"] = end
	}
	if input.LowStockAlerts != nil {
		updates["low_stock_alerts"] = *input.LowStockAlerts
	}

	row, err := s.repo.Update(ctx, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settings")
	}
	return fromModel(row), nil
}

func fromModel(m *models.Settings) *SettingsDTO {
	return &SettingsDTO{
		CompanyName:        m.CompanyName,
		Address:            m.Address,
		Phone:              m.Phone,
		Email:              m.Email,
		GSTIN:              m.GSTIN,
		DefaultGSTRate:     m.DefaultGSTRate,
		ApplyGSTOnPurchase: m.ApplyGSTOnPurchase,
		FinancialYearStart: m.FinancialYearStart,
		FinancialYearEnd:   m.FinancialYearEnd,
		LowStockAlerts:     m.LowStockAlerts,
		UpdatedAt:          m.UpdatedAt,
	}
}
