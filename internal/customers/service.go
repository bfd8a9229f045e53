package customers

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

// Service exposes customer management to controllers.
type Service interface {
	Create(ctx context.Context, input UpsertCustomerInput) (*CustomerDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertCustomerInput) (*CustomerDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	List(ctx context.Context, activeOnly bool) ([]CustomerDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, activeOnly bool) ([]models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Customer, error)
	CountSalesOrders(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type service struct {
	repo repository
}

// NewService builds the customers service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input UpsertCustomerInput) (*CustomerDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	customer := &models.Customer{
		Name:          name,
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		Phone:         strings.TrimSpace(input.Phone),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Address:       strings.TrimSpace(input.Address),
		GSTIN:         strings.ToUpper(strings.TrimSpace(input.GSTIN)),
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return FromModel(customer), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertCustomerInput) (*CustomerDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	customer, err := s.repo.Update(ctx, id, map[string]any{
		"name":           name,
		"contact_person": strings.TrimSpace(input.ContactPerson),
		"phone":          strings.TrimSpace(input.Phone),
		"email":          strings.ToLower(strings.TrimSpace(input.Email)),
		"address":        strings.TrimSpace(input.Address),
		"gstin":          strings.ToUpper(strings.TrimSpace(input.GSTIN)),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return FromModel(customer), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return FromModel(customer), nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]CustomerDTO, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	out := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Delete blocks removal while sales orders still reference the customer.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountSalesOrders(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customer orders")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "customer has sales orders on record")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return nil
}
