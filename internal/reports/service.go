package reports

import (
	"context"
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

func decimalFromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}

// Service produces flat, exportable report projections. Reads only; an empty
// result is a success and renders as a header-only CSV.
type Service interface {
	Inventory(ctx context.Context, params InventoryParams) ([]InventoryRow, error)
	Sales(ctx context.Context, params RangeParams) ([]SalesRow, error)
	Purchases(ctx context.Context, params RangeParams) ([]PurchaseRow, error)
	RenderCSV(rows any) ([]byte, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds the reporting service.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	return &service{db: db}, nil
}

func (s *service) Inventory(ctx context.Context, params InventoryParams) ([]InventoryRow, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Preload("Category").
		Preload("Brand").
		Preload("Unit").
		Where("is_active = ?", true)
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.LowStock {
		query = query.Where("stock_qty < min_stock_qty")
	}

	var products []models.Product
	if err := query.Order("code ASC").Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory snapshot")
	}

	rows := make([]InventoryRow, 0, len(products))
	for i := range products {
		p := &products[i]
		row := InventoryRow{
			Code:         p.Code,
			Name:         p.Name,
			StockQty:     p.StockQty,
			MinStockQty:  p.MinStockQty,
			CostPrice:    p.CostPrice.StringFixed(2),
			SellingPrice: p.SellingPrice.StringFixed(2),
			StockValue:   p.CostPrice.Mul(decimalFromInt(p.StockQty)).StringFixed(2),
			LowStock:     p.StockQty < p.MinStockQty,
		}
		if p.Category != nil {
			row.Category = p.Category.Name
		}
		if p.Brand != nil {
			row.Brand = p.Brand.Name
		}
		if p.Unit != nil {
			row.Unit = p.Unit.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *service) Sales(ctx context.Context, params RangeParams) ([]SalesRow, error) {
	query := s.db.WithContext(ctx).Model(&models.SalesOrder{}).
		Preload("Customer").
		Preload("Items")
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.From != nil {
		query = query.Where("order_date >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("order_date <= ?", *params.To)
	}

	var orders []models.SalesOrder
	if err := query.Order("order_date ASC, number ASC").Find(&orders).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales orders")
	}

	rows := make([]SalesRow, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		row := SalesRow{
			Number:    o.Number,
			OrderDate: o.OrderDate.Format(dateLayout),
			Subtotal:  o.Subtotal.StringFixed(2),
			GSTTotal:  o.GSTTotal.StringFixed(2),
			Discount:  o.Discount.StringFixed(2),
			Total:     o.Total.StringFixed(2),
			Items:     len(o.Items),
		}
		if o.Customer != nil {
			row.Customer = o.Customer.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *service) Purchases(ctx context.Context, params RangeParams) ([]PurchaseRow, error) {
	query := s.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Preload("Supplier").
		Preload("Items")
	if params.SupplierID != nil {
		query = query.Where("supplier_id = ?", *params.SupplierID)
	}
	if params.From != nil {
		query = query.Where("order_date >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("order_date <= ?", *params.To)
	}

	var orders []models.PurchaseOrder
	if err := query.Order("order_date ASC, number ASC").Find(&orders).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase orders")
	}

	rows := make([]PurchaseRow, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		row := PurchaseRow{
			Number:    o.Number,
			OrderDate: o.OrderDate.Format(dateLayout),
			Subtotal:  o.Subtotal.StringFixed(2),
			GSTTotal:  o.GSTTotal.StringFixed(2),
			Discount:  o.Discount.StringFixed(2),
			Total:     o.Total.StringFixed(2),
			Items:     len(o.Items),
		}
		if o.Supplier != nil {
			row.Supplier = o.Supplier.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RenderCSV marshals a row slice. An empty slice still yields the header line.
func (s *service) RenderCSV(rows any) ([]byte, error) {
	out, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render csv")
	}
	return out, nil
}
