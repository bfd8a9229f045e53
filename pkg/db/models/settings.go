package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsRowID is the fixed key of the singleton settings row.
const SettingsRowID = 1

// Settings holds the per-deployment company profile and tax configuration.
type Settings struct {
	ID                 int             `gorm:"column:id;primaryKey"`
	CompanyName        string          `gorm:"column:company_name;not null"`
	Address            string          `gorm:"column:address"`
	Phone              string          `gorm:"column:phone"`
	Email              string          `gorm:"column:email"`
	GSTIN              string          `gorm:"column:gstin"`
	DefaultGSTRate     decimal.Decimal `gorm:"column:default_gst_rate;type:numeric(5,2);not null"`
	ApplyGSTOnPurchase bool            `gorm:"column:apply_gst_on_purchase;not null;default:false"`
	FinancialYearStart time.Time       `gorm:"column:financial_year_start;not null"`
	FinancialYearEnd   time.Time       `gorm:"column:financial_year_end;not null"`
	LowStockAlerts     bool            `gorm:"column:low_stock_alerts;not null;default:true"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singleton in a plural-free table.
func (Settings) TableName() string {
	return "settings"
}
