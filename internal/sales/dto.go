package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
)

// SalesLineInput is one requested line of a sale. The unit price is never
// client-supplied; it is frozen from the product's selling price at sale time.
type SalesLineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

// CreateSalesOrderInput carries everything needed to record a sale.
type CreateSalesOrderInput struct {
	CustomerID uuid.UUID        `json:"customer_id" validate:"required"`
	OrderDate  *time.Time       `json:"order_date"`
	Lines      []SalesLineInput `json:"lines" validate:"required,min=1,dive"`
	Discount   decimal.Decimal  `json:"discount"`
	Notes      string           `json:"notes"`
	ActorID    uuid.UUID        `json:"-"`
}

// SalesItemDTO is the transport shape of one sold line.
type SalesItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	GSTRate     decimal.Decimal `json:"gst_rate"`
	GSTAmount   decimal.Decimal `json:"gst_amount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// SalesOrderDTO is the transport shape of a sales order with its lines.
type SalesOrderDTO struct {
	ID           uuid.UUID         `json:"id"`
	Number       string            `json:"number"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	CustomerName string            `json:"customer_name,omitempty"`
	OrderDate    time.Time         `json:"order_date"`
	Status       enums.OrderStatus `json:"status"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	GSTTotal     decimal.Decimal   `json:"gst_total"`
	Discount     decimal.Decimal   `json:"discount"`
	Total        decimal.Decimal   `json:"total"`
	Notes        *string           `json:"notes,omitempty"`
	CreatedBy    uuid.UUID         `json:"created_by"`
	Items        []SalesItemDTO    `json:"items"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ListParams filters and paginates the sales order list.
type ListParams struct {
	Limit      int
	Cursor     string
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// Page is one page of sales orders.
type Page struct {
	Items      []SalesOrderDTO `json:"items"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

func orderFromModel(m *models.SalesOrder) *SalesOrderDTO {
	if m == nil {
		return nil
	}
	dto := &SalesOrderDTO{
		ID:         m.ID,
		Number:     m.Number,
		CustomerID: m.CustomerID,
		OrderDate:  m.OrderDate,
		Status:     m.Status,
		Subtotal:   m.Subtotal,
		GSTTotal:   m.GSTTotal,
		Discount:   m.Discount,
		Total:      m.Total,
		Notes:      m.Notes,
		CreatedBy:  m.CreatedBy,
		Items:      make([]SalesItemDTO, 0, len(m.Items)),
		CreatedAt:  m.CreatedAt,
	}
	if m.Customer != nil {
		dto.CustomerName = m.Customer.Name
	}
	for i := range m.Items {
		item := &m.Items[i]
		itemDTO := SalesItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			GSTRate:   item.GSTRate,
			GSTAmount: item.GSTAmount,
			LineTotal: item.LineTotal,
		}
		if item.Product != nil {
			itemDTO.ProductCode = item.Product.Code
			itemDTO.ProductName = item.Product.Name
		}
		dto.Items = append(dto.Items, itemDTO)
	}
	return dto
}
