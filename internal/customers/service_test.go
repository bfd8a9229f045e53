package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
)

type stubCustomerRepo struct {
	byID       map[uuid.UUID]*models.Customer
	orderCount int64
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{byID: map[uuid.UUID]*models.Customer{}}
}

func (s *stubCustomerRepo) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	s.byID[customer.ID] = customer
	return nil
}

func (s *stubCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if customer, ok := s.byID[id]; ok {
		return customer, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomerRepo) List(ctx context.Context, activeOnly bool) ([]models.Customer, error) {
	out := make([]models.Customer, 0, len(s.byID))
	for _, customer := range s.byID {
		if activeOnly && !customer.IsActive {
			continue
		}
		out = append(out, *customer)
	}
	return out, nil
}

func (s *stubCustomerRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Customer, error) {
	customer, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		customer.Name = name
	}
	return customer, nil
}

func (s *stubCustomerRepo) CountSalesOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.orderCount, nil
}

func (s *stubCustomerRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func TestCreateCustomerAllowsMissingGSTIN(t *testing.T) {
	svc, err := NewService(newStubCustomerRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), UpsertCustomerInput{Name: "Walk-in Retail"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.GSTIN != "" {
		t.Fatalf("expected empty gstin, got %q", dto.GSTIN)
	}
	if !dto.IsActive {
		t.Fatal("new customers start active")
	}
}

func TestUpdateMissingCustomerNotFound(t *testing.T) {
	svc, _ := NewService(newStubCustomerRepo())
	_, err := svc.Update(context.Background(), uuid.New(), UpsertCustomerInput{Name: "Someone"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteCustomerWithOrdersConflicts(t *testing.T) {
	repo := newStubCustomerRepo()
	customer := &models.Customer{ID: uuid.New(), Name: "Regular", IsActive: true}
	repo.byID[customer.ID] = customer
	repo.orderCount = 2
	svc, _ := NewService(repo)

	err := svc.Delete(context.Background(), customer.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
