package sales

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

const numberScope = "sales_order"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type customerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// Service records and reads sales orders.
type Service interface {
	Create(ctx context.Context, input CreateSalesOrderInput) (*SalesOrderDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SalesOrderDTO, error)
	List(ctx context.Context, params ListParams) (*Page, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	stock     inventory.Repository
	customers customerRepository
	settings  settingsReader
	alerts    notifications.Repository
}

// ServiceParams bundles the dependencies of the sales service.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Stock         inventory.Repository
	Customers     customerRepository
	Settings      settingsReader
	Notifications notifications.Repository
}

// NewService builds the sales service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sales repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("inventory repository is required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository is required")
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
		customers: params.Customers,
		settings:  params.Settings,
		alerts:    params.Notifications,
	}, nil
}

// Create records a completed sale. The header, its lines, every guarded stock
// decrement, the ledger rows and the notifications commit or roll back as one
// unit of work. Under concurrent sales of the last units the conditional
// UPDATE serializes on the product row: exactly one transaction commits, the
// other fails with InsufficientStock.
func (s *service) Create(ctx context.Context, input CreateSalesOrderInput) (*SalesOrderDTO, error) {
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
	}
	if input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
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
		items := make([]models.SalesItem, 0, len(input.Lines))
		lowStock := make([]*models.Product, 0)

		for _, line := range input.Lines {
			product, err := stock.FindProductByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}

			ok, err := stock.DecrementStock(ctx, product.ID, line.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				// Re-read so the error reports the quantity actually on hand,
				// not the snapshot loaded above.
				available, err := stock.StockQty(ctx, product.ID)
				if err != nil {
					available = product.StockQty
				}
				// The re-read can race a replenishment; never report a
				// negative shortfall.
				shortfall := line.Qty - available
				if shortfall < 0 {
					shortfall = 0
				}
				return pkgerrors.New(pkgerrors.CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for %s: requested %d, available %d", product.Code, line.Qty, available)).
					WithDetails(map[string]any{
						"product_code": product.Code,
						"requested":    line.Qty,
						"available":    available,
						"shortfall":    shortfall,
					})
			}

			qty := decimal.NewFromInt(int64(line.Qty))
			lineSubtotal := product.SellingPrice.Mul(qty)
			gstAmount := lineSubtotal.Mul(product.GSTRate).Div(decimal.NewFromInt(100)).Round(2)

			subtotal = subtotal.Add(lineSubtotal)
			gstTotal = gstTotal.Add(gstAmount)
			items = append(items, models.SalesItem{
				ProductID: product.ID,
				Qty:       line.Qty,
				UnitPrice: product.SellingPrice,
				GSTRate:   product.GSTRate,
				GSTAmount: gstAmount,
				LineTotal: lineSubtotal.Add(gstAmount),
			})

			after := product.StockQty - line.Qty
			if settings.LowStockAlerts && after < product.MinStockQty && product.StockQty >= product.MinStockQty {
				lowStock = append(lowStock, product)
			}
		}

		total := subtotal.Add(gstTotal).Sub(input.Discount)
		if total.IsNegative() {
			total = decimal.Zero
		}

		seq, err := dbpkg.NextSequence(ctx, tx, numberScope)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		var notes *string
		if trimmed := strings.TrimSpace(input.Notes); trimmed != "" {
			notes = &trimmed
		}
		order := &models.SalesOrder{
			Number:     fmt.Sprintf("SO-%05d", seq),
			CustomerID: customer.ID,
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
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sales order")
		}
		orderID = order.ID

		for _, line := range input.Lines {
			if err := stock.CreateStockTransaction(ctx, &models.StockTransaction{
				ProductID: line.ProductID,
				Qty:       line.Qty,
				Direction: enums.StockDirectionOutbound,
				Reference: enums.StockReferenceSale,
				OrderID:   &order.ID,
				ActorID:   input.ActorID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock transaction")
			}
		}

		alerts := s.alerts.WithTx(tx)
		for _, product := range lowStock {
			remaining, err := stock.StockQty(ctx, product.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock")
			}
			productID := product.ID
			if err := alerts.Create(ctx, &models.Notification{
				Kind:      enums.NotificationLowStock,
				Title:     fmt.Sprintf("Low stock: %s", product.Name),
				Body:      fmt.Sprintf("%s (%s) is down to %d units, below the minimum of %d.", product.Name, product.Code, remaining, product.MinStockQty),
				ProductID: &productID,
				OrderID:   &order.ID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write low stock alert")
			}
		}

		if err := alerts.Create(ctx, &models.Notification{
			Kind:    enums.NotificationSaleCreated,
			Title:   fmt.Sprintf("Sale %s recorded", order.Number),
			Body:    fmt.Sprintf("Sale %s to %s for %s.", order.Number, customer.Name, order.Total.StringFixed(2)),
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

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SalesOrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sales order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales order")
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
		CustomerID: params.CustomerID,
		From:       params.From,
		To:         params.To,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales orders")
	}

	page := &Page{Items: make([]SalesOrderDTO, 0, len(orders))}
	for i := range orders {
		page.Items = append(page.Items, *orderFromModel(&orders[i]))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}
