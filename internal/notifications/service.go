package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
	"github.com/karthikraju/granary-backend/pkg/pagination"
)

// Service exposes the notification feed to controllers.
type Service interface {
	List(ctx context.Context, limit int, cursor string, unreadOnly bool) (*FeedPage, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
	UnreadCount(ctx context.Context) (int64, error)
}

// FeedPage is one page of the notification feed.
type FeedPage struct {
	Items      []NotificationDTO `json:"items"`
	NextCursor *string           `json:"next_cursor,omitempty"`
	Unread     int64             `json:"unread"`
}

// NotificationDTO is the transport shape of one alert.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Kind      enums.NotificationKind `json:"kind"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	ProductID *uuid.UUID             `json:"product_id,omitempty"`
	OrderID   *uuid.UUID             `json:"order_id,omitempty"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt string                 `json:"created_at"`
}

type service struct {
	repo Repository
}

// NewService builds the notifications service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, limit int, cursor string, unreadOnly bool) (*FeedPage, error) {
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, ListParams{Limit: limit, Cursor: parsed, UnreadOnly: unreadOnly})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}

	page := &FeedPage{Items: make([]NotificationDTO, 0, len(rows)), Unread: unread}
	for i := range rows {
		page.Items = append(page.Items, fromModel(&rows[i]))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id is required")
	}
	mark, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !mark.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all read")
	}
	return updated, nil
}

func (s *service) UnreadCount(ctx context.Context) (int64, error) {
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}
	return count, nil
}

func fromModel(m *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        m.ID,
		Kind:      m.Kind,
		Title:     m.Title,
		Body:      m.Body,
		ProductID: m.ProductID,
		OrderID:   m.OrderID,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
