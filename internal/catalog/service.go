package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/karthikraju/granary-backend/pkg/db"
	"github.com/karthikraju/granary-backend/pkg/db/models"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
)

// Service exposes category, brand and unit management.
type Service interface {
	CreateCategory(ctx context.Context, name, codePrefix string) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, codePrefix *string) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateBrand(ctx context.Context, name string) (*BrandDTO, error)
	ListBrands(ctx context.Context) ([]BrandDTO, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error

	CreateUnit(ctx context.Context, name, abbreviation string) (*UnitDTO, error)
	ListUnits(ctx context.Context) ([]UnitDTO, error)
	DeleteUnit(ctx context.Context, id uuid.UUID) error
}

type repository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error)
	CountProductsByCategory(ctx context.Context, id uuid.UUID) (int64, error)

	CreateBrand(ctx context.Context, brand *models.Brand) error
	ListBrands(ctx context.Context) ([]models.Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) (int64, error)
	CountProductsByBrand(ctx context.Context, id uuid.UUID) (int64, error)

	CreateUnit(ctx context.Context, unit *models.Unit) error
	ListUnits(ctx context.Context) ([]models.Unit, error)
	DeleteUnit(ctx context.Context, id uuid.UUID) (int64, error)
	CountProductsByUnit(ctx context.Context, id uuid.UUID) (int64, error)
}

type service struct {
	repo repository
}

// NewService builds the catalog service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

// defaultCodePrefix derives a three-letter code prefix from the category name.
func defaultCodePrefix(name string) string {
	cleaned := make([]rune, 0, 3)
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			cleaned = append(cleaned, r)
		}
		if len(cleaned) == 3 {
			break
		}
	}
	if len(cleaned) == 0 {
		return "PRD"
	}
	return string(cleaned)
}

func (s *service) CreateCategory(ctx context.Context, name, codePrefix string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	prefix := strings.ToUpper(strings.TrimSpace(codePrefix))
	if prefix == "" {
		prefix = defaultCodePrefix(name)
	}

	category := &models.Category{Name: name, CodePrefix: prefix}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if dbpkg.IsUniqueViolation(err, "") || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return categoryFromModel(category), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, name, codePrefix *string) (*CategoryDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	updates := map[string]any{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		updates["name"] = trimmed
	}
	if codePrefix != nil {
		prefix := strings.ToUpper(strings.TrimSpace(*codePrefix))
		if prefix == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "code prefix cannot be empty")
		}
		updates["code_prefix"] = prefix
	}

	category, err := s.repo.UpdateCategory(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return categoryFromModel(category), nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *categoryFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountProductsByCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category is referenced by products")
	}
	affected, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) CreateBrand(ctx context.Context, name string) (*BrandDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand name is required")
	}
	brand := &models.Brand{Name: name}
	if err := s.repo.CreateBrand(ctx, brand); err != nil {
		if dbpkg.IsUniqueViolation(err, "") || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "brand name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create brand")
	}
	return brandFromModel(brand), nil
}

func (s *service) ListBrands(ctx context.Context) ([]BrandDTO, error) {
	rows, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	out := make([]BrandDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *brandFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountProductsByBrand(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count brand products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "brand is referenced by products")
	}
	affected, err := s.repo.DeleteBrand(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete brand")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
	}
	return nil
}

func (s *service) CreateUnit(ctx context.Context, name, abbreviation string) (*UnitDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit name is required")
	}
	abbreviation = strings.TrimSpace(abbreviation)
	if abbreviation == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit abbreviation is required")
	}
	unit := &models.Unit{Name: name, Abbreviation: abbreviation}
	if err := s.repo.CreateUnit(ctx, unit); err != nil {
		if dbpkg.IsUniqueViolation(err, "") || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "unit name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create unit")
	}
	return unitFromModel(unit), nil
}

func (s *service) ListUnits(ctx context.Context) ([]UnitDTO, error) {
	rows, err := s.repo.ListUnits(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list units")
	}
	out := make([]UnitDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *unitFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountProductsByUnit(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unit products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "unit is referenced by products")
	}
	affected, err := s.repo.DeleteUnit(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete unit")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
	}
	return nil
}
