package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
)

// Service exposes supplier management to controllers.
type Service interface {
	Create(ctx context.Context, input UpsertSupplierInput) (*SupplierDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertSupplierInput) (*SupplierDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SupplierDTO, error)
	List(ctx context.Context, activeOnly bool) ([]SupplierDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context, activeOnly bool) ([]models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Supplier, error)
	CountPurchaseOrders(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type service struct {
	repo repository
}

// NewService builds the suppliers service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input UpsertSupplierInput) (*SupplierDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	supplier := &models.Supplier{
		Name:          name,
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		Phone:         strings.TrimSpace(input.Phone),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Address:       strings.TrimSpace(input.Address),
		GSTIN:         strings.ToUpper(strings.TrimSpace(input.GSTIN)),
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertSupplierInput) (*SupplierDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	supplier, err := s.repo.Update(ctx, id, map[string]any{
		"name":           name,
		"contact_person": strings.TrimSpace(input.ContactPerson),
		"phone":          strings.TrimSpace(input.Phone),
		"email":          strings.ToLower(strings.TrimSpace(input.Email)),
		"address":        strings.TrimSpace(input.Address),
		"gstin":          strings.ToUpper(strings.TrimSpace(input.GSTIN)),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SupplierDTO, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]SupplierDTO, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	out := make([]SupplierDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Delete blocks removal while purchase orders still reference the supplier.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountPurchaseOrders(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count supplier orders")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "supplier has purchase orders on record")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return nil
}
