// Package workorder implements create, read, update, delete, and per-user
// listing of work orders on top of the document store.
package workorder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/couchcryptid/work-order-weather-service/internal/adapter/docstore"
	"github.com/couchcryptid/work-order-weather-service/internal/domain"
	"github.com/couchcryptid/work-order-weather-service/internal/observability"
	"github.com/couchcryptid/work-order-weather-service/internal/validation"
)

// Index names for listing orders by assignee.
const (
	UserView  = "userDoc"
	UserIndex = "userIndex"
)

// AssigneeIndex indexes work orders by assignedTo. It must be registered
// with the document store that backs the Service.
var AssigneeIndex = docstore.Index{
	View: UserView,
	Name: UserIndex,
	Key: func(doc []byte) (string, bool) {
		var o struct {
			AssignedTo string `json:"assignedTo"`
		}
		if err := json.Unmarshal(doc, &o); err != nil || o.AssignedTo == "" {
			return "", false
		}
		return o.AssignedTo, true
	},
}

// Documents is the subset of the document store the service needs.
type Documents interface {
	Find(ctx context.Context, id string, out any) error
	Post(ctx context.Context, id string, doc any) error
	Update(ctx context.Context, id string, doc any) error
	Remove(ctx context.Context, id string) error
	Query(ctx context.Context, view, index, key string) ([][]byte, error)
}

// Service manages work orders.
type Service struct {
	docs    Documents
	logger  *slog.Logger
	metrics *observability.Metrics
	newID   func() string
}

// NewService creates a Service over docs.
func NewService(docs Documents, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		docs:    docs,
		logger:  logger,
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

// Create validates and stores a new work order. The id and creation time
// are always assigned here.
func (s *Service) Create(ctx context.Context, order domain.WorkOrder) (domain.WorkOrder, error) {
	if err := validation.Struct(order); err != nil {
		s.record("create", err)
		return domain.WorkOrder{}, err
	}

	now := domain.Now()
	order.ID = s.newID()
	order.Created = now
	order.StampFinished(now)

	err := s.docs.Post(ctx, order.ID, order)
	s.record("create", err)
	if err != nil {
		return domain.WorkOrder{}, fmt.Errorf("create work order: %w", err)
	}
	s.logger.Info("work order created", "id", order.ID, "assigned_to", order.AssignedTo)
	return order, nil
}

// Get returns the work order with id.
func (s *Service) Get(ctx context.Context, id string) (domain.WorkOrder, error) {
	var order domain.WorkOrder
	err := s.docs.Find(ctx, id, &order)
	s.record("get", err)
	if err != nil {
		return domain.WorkOrder{}, fmt.Errorf("get work order: %w", err)
	}
	return order, nil
}

// Update applies the editable fields of update to the stored order.
func (s *Service) Update(ctx context.Context, id string, update domain.WorkOrder) (domain.WorkOrder, error) {
	var current domain.WorkOrder
	if err := s.docs.Find(ctx, id, &current); err != nil {
		s.record("update", err)
		return domain.WorkOrder{}, fmt.Errorf("update work order: %w", err)
	}
	if err := validation.Struct(update); err != nil {
		s.record("update", err)
		return domain.WorkOrder{}, err
	}

	update.StampFinished(domain.Now())
	current.ApplyUpdate(update)

	err := s.docs.Update(ctx, id, current)
	s.record("update", err)
	if err != nil {
		return domain.WorkOrder{}, fmt.Errorf("update work order: %w", err)
	}
	return current, nil
}

// Delete removes the work order with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.docs.Remove(ctx, id)
	s.record("delete", err)
	if err != nil {
		return fmt.Errorf("delete work order: %w", err)
	}
	s.logger.Info("work order deleted", "id", id)
	return nil
}

// ListByUser returns the orders assigned to user. The result is never nil.
func (s *Service) ListByUser(ctx context.Context, user string) ([]domain.WorkOrder, error) {
	raw, err := s.docs.Query(ctx, UserView, UserIndex, user)
	if err != nil {
		s.record("list", err)
		return nil, fmt.Errorf("list work orders: %w", err)
	}

	orders := make([]domain.WorkOrder, 0, len(raw))
	for _, doc := range raw {
		var o domain.WorkOrder
		if err := json.Unmarshal(doc, &o); err != nil {
			err = fmt.Errorf("%w: decode work order: %w", domain.ErrPersistence, err)
			s.record("list", err)
			return nil, err
		}
		orders = append(orders, o)
	}
	s.record("list", nil)
	return orders, nil
}

func (s *Service) record(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.WorkOrderOps.WithLabelValues(op, outcome).Inc()
}
