package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/internal/inventory"
	"github.com/karthikraju/granary-backend/internal/notifications"
	dbpkg "github.com/karthikraju/granary-backend/pkg/db"
	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
	"github.com/karthikraju/granary-backend/pkg/pagination"
)

const numberScope = "purchase_order"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type supplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// Service records and reads purchase orders.
type Service interface {
	Create(ctx context.Context, input CreatePurchaseOrderInput) (*PurchaseOrderDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*PurchaseOrderDTO, error)
	List(ctx context.Context, params ListParams) (*Page, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	stock     inventory.Repository
	suppliers supplierRepository
	settings  settingsReader
	alerts    notifications.Repository
}

// ServiceParams bundles the dependencies of the purchasing service.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Stock         inventory.Repository
	Suppliers     supplierRepository
	Settings      settingsReader
	Notifications notifications.Repository
}

// NewService builds the purchasing service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("purchase repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("inventory repository is required")
	}
	if params.Suppliers == nil {
		return nil, fmt.Errorf("supplier repository is required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings reader is required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository is required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		stock:     params.Stock,
		suppliers: params.Suppliers,
		settings:  params.Settings,
		alerts:    params.Notifications,
	}, nil
}

// Create records a completed purchase. The header, its lines, every stock
// increment, the ledger rows and the notification commit or roll back as one
// unit of work.
func (s *service) Create(ctx context.Context, input CreatePurchaseOrderInput) (*PurchaseOrderDTO, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product id is required", i+1))
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: qty must be positive", i+1))
		}
		if line.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit cost cannot be negative", i+1))
		}
	}
	if input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}

	supplier, err := s.suppliers.FindByID(ctx, input.SupplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}

	orderDate := time.Now().UTC()
	if input.OrderDate != nil {
		orderDate = *input.OrderDate
	}

	var orderID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stock := s.stock.WithTx(tx)

		subtotal := decimal.Zero
		gstTotal := decimal.Zero
		items := make([]models.PurchaseItem, 0, len(input.Lines))

		for _, line := range input.Lines {
			product, err := stock.FindProductByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}

			lineSubtotal := line.UnitCost.Mul(decimal.NewFromInt(int64(line.Qty)))
			gstRate := decimal.Zero
			gstAmount := decimal.Zero
			if settings.ApplyGSTOnPurchase {
				gstRate = product.GSTRate
				gstAmount = lineSubtotal.Mul(gstRate).Div(decimal.NewFromInt(100)).Round(2)
			}

			subtotal = subtotal.Add(lineSubtotal)
			gstTotal = gstTotal.Add(gstAmount)
			items = append(items, models.PurchaseItem{
				ProductID: product.ID,
				Qty:       line.Qty,
				UnitCost:  line.UnitCost,
				GSTRate:   gstRate,
				GSTAmount: gstAmount,
				LineTotal: lineSubtotal.Add(gstAmount),
			})
		}

		total := subtotal.Add(gstTotal).Sub(input.Discount)
		if total.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order value")
		}

		seq, err := dbpkg.NextSequence(ctx, tx, numberScope)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		var notes *string
		if trimmed := strings.TrimSpace(input.Notes); trimmed != "" {
			notes = &trimmed
		}
		order := &models.PurchaseOrder{
			Number:     fmt.Sprintf("PO-%05d", seq),
			SupplierID: supplier.ID,
			OrderDate:  orderDate,
			Status:     enums.OrderStatusCompleted,
			Subtotal:   subtotal.Round(2),
			GSTTotal:   gstTotal.Round(2),
			Discount:   input.Discount.Round(2),
			Total:      total.Round(2),
			Notes:      notes,
			CreatedBy:  input.ActorID,
			Items:      items,
		}
		if err := repo.Create(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order number collision, retry the request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
		}
		orderID = order.ID

		for _, line := range input.Lines {
			if err := stock.IncrementStock(ctx, line.ProductID, line.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
			}
			if err := stock.CreateStockTransaction(ctx, &models.StockTransaction{
				ProductID: line.ProductID,
				Qty:       line.Qty,
				Direction: enums.StockDirectionInbound,
				Reference: enums.StockReferencePurchase,
				OrderID:   &order.ID,
				ActorID:   input.ActorID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock transaction")
			}
		}

		if err := s.alerts.WithTx(tx).Create(ctx, &models.Notification{
			Kind:    enums.NotificationPurchaseCreated,
			Title:   fmt.Sprintf("Purchase %s recorded", order.Number),
			Body:    fmt.Sprintf("Purchase %s from %s for %s.", order.Number, supplier.Name, order.Total.StringFixed(2)),
			OrderID: &order.ID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write notification")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PurchaseOrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return orderFromModel(order), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	orders, next, err := s.repo.List(ctx, listQuery{
		Limit:      params.Limit,
		Cursor:     cursor,
		SupplierID: params.SupplierID,
		From:       params.From,
		To:         params.To,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}

	page := &Page{Items: make([]PurchaseOrderDTO, 0, len(orders))}
	for i := range orders {
		page.Items = append(page.Items, *orderFromModel(&orders[i]))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}
