package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizza-delivery/internal/data/entity"
	"pizza-delivery/internal/data/repository"
	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/internal/domain/policy"
	"pizza-delivery/internal/dto/request"
	"pizza-delivery/internal/dto/response"
	"pizza-delivery/pkg/events"
	"pizza-delivery/pkg/utils"

	"go.uber.org/zap"
)

// OrderService runs every order operation as authenticate → authorize →
// validate → store. username is the verified token subject.
type OrderService interface {
	CreateOrder(ctx context.Context, username string, req *request.CreateOrderRequest) (*response.OrderResponse, error)
	ListOwnOrders(ctx context.Context, username string) ([]response.OrderResponse, error)
	GetOwnOrder(ctx context.Context, username string, id int64) (*response.OrderResponse, error)
	UpdateOrder(ctx context.Context, username string, id int64, req *request.UpdateOrderRequest) (*response.OrderResponse, error)
	DeleteOrder(ctx context.Context, username string, id int64) error

	// Staff operations
	ListAllOrders(ctx context.Context, username string) ([]response.OrderResponse, error)
	GetOrderByID(ctx context.Context, username string, id int64) (*response.OrderResponse, error)
	SetOrderStatus(ctx context.Context, username string, id int64, req *request.UpdateOrderStatusRequest) (*response.OrderResponse, error)
}

type orderService struct {
	users     repository.UserRepository
	orders    repository.OrderRepository
	ownership *OwnershipResolver
	authz     *policy.Authorizer
	publisher events.Publisher
	log       *zap.Logger
}

func NewOrderService(
	repo *repository.Repository,
	authz *policy.Authorizer,
	publisher events.Publisher,
	log *zap.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &orderService{
		users:     repo.User,
		orders:    repo.Order,
		ownership: NewOwnershipResolver(repo.Order),
		authz:     authz,
		publisher: publisher,
		log:       log.With(zap.String("service", "order")),
	}
}

func (s *orderService) CreateOrder(ctx context.Context, username string, req *request.CreateOrderRequest) (*response.OrderResponse, error) {
	actor, err := s.resolveActor(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, policy.OpCreateOrder, nil); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create order validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", domainErr.ErrValidation, utils.FormatValidationErrors(errs))
	}

	size, err := policy.ParseSize(req.PizzaSize)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckQuantity(req.Quantity); err != nil {
		return nil, err
	}

	order := &entity.Order{
		UserID:    actor.ID,
		PizzaSize: size,
		Quantity:  req.Quantity,
		Status:    entity.OrderStatusReceived,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error("Failed to create order", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("username", username),
		zap.String("pizza_size", string(order.PizzaSize)),
		zap.Int("quantity", order.Quantity),
	)

	s.publish(ctx, events.OrderCreated, actor, order, "")

	resp := response.OrderToResponse(order)
	return &resp, nil
}

func (s *orderService) ListOwnOrders(ctx context.Context, username string) ([]response.OrderResponse, error) {
	actor, err := s.resolveActor(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, policy.OpListOwnOrders, nil); err != nil {
		return nil, err
	}

	orders, err := s.ownership.OrdersOwnedBy(ctx, actor)
	if err != nil {
		s.log.Error("Failed to list own orders", zap.Error(err), zap.String("username", username))
		return nil, err
	}

	return response.OrdersToResponse(orders), nil
}

func (s *orderService) GetOwnOrder(ctx context.Context, username string, id int64) (*response.OrderResponse, error) {
	actor, err := s.resolveActor(ctx, username)
	if err != nil {
		return nil, err
	}

	order, err := s.ownership.OrderOwnedBy(ctx, actor, id)
	if err != nil {
		if !errors.Is(err, domainErr.ErrNotFound) {
			s.log.Error("Failed to get own order", zap.Error(err), zap.Int64("order_id", id))
		}
		return nil, err
	}

	if err := s.authz.Authorize(actor, policy.OpGetOwnOrder, order); err != nil {
		return nil, err
	}

	resp := response.OrderToResponse(order)
	return &resp, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, username string, id int64, req *request.UpdateOrderRequest) (*response.OrderResponse, error) {
	actor, err := s.resolveActor(ctx, username)
	if err != nil {
		return nil, err
	}

	// Validate fully before touching the store
	if req.Empty() {
		return nil, fmt.Errorf("%w: pizza_size or quantity is required", domainErr.ErrValidation)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update order validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", domainErr.ErrValidation, utils.FormatValidationErrors(errs))
	}

	var size entity.PizzaSize
	if req.PizzaSize != nil {
		if size, err = policy.ParseSize(*req.PizzaSize); err != nil {
			return nil, err
		}
	}
	if req.Quantity != nil {
		if err := policy.CheckQuantity(*req.Quantity); err != nil {
			return nil, err
		}
	}

	updated, err := s.orders.Mutate(ctx, id, func(order *entity.Order) error {
		if err := s.authorizeTarget(actor, policy.OpUpdateOrder, order); err != nil {
			return err
		}
		if err := policy.CheckEditable(order); err != nil {
			return err
		}

		if req.PizzaSize != nil {
			order.PizzaSize = size
		}
		if req.Quantity != nil {
			order.Quantity = *req.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, s.mutationError("update order", id, username, err)
	}

	s.log.Info("Order updated",
		zap.Int64("order_id", id),
		zap.String("username", username),
		zap.String("pizza_size", string(updated.PizzaSize)),
		zap.Int("quantity", updated.Quantity),
	)

	s.publish(ctx, events.OrderUpdated, actor, updated, "")

	resp := response.OrderToResponse(updated)
	return &resp, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, username string, id int64) error {
	actor, err := s.resolveActor(ctx, username)
	if err != nil {
		return err
	}

	deleted, err := s.orders.DeleteWith(ctx, id, func(order *entity.Order) error {
		return s.authorizeTarget(actor, policy.OpDeleteOrder, order)
	})
	if err != nil {
		return s.mutationError("delete order", id, username, err)
	}

	s.log.Info("Order deleted", zap.Int64("order_id", id), zap.String("username", username))

	s.publish(ctx, events.OrderDeleted, actor, deleted, "")
	return nil
}

// ==================== STAFF METHODS ====================

func (s *orderService) ListAllOrders(ctx context.Context, username string) ([]response.OrderResponse, error) {
	actor, err := s.resolveActor(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, policy.OpListAllOrders, nil); err != nil {
		s.log.Warn("List all orders denied", zap.String("username", username))
		return nil, err
	}

	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to list all orders", zap.Error(err))
		return nil, fmt.Errorf("list all orders: %w", err)
	}

	return response.OrdersToResponse(orders), nil
}

func (s *orderService) GetOrderByID(ctx context.Context, username string, id int64) (*response.OrderResponse, error) {
	actor, err := s.resolveActor(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, policy.OpGetOrderByID, nil); err != nil {
		s.log.Warn("Get order by ID denied", zap.String("username", username), zap.Int64("order_id", id))
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get order", zap.Error(err), zap.Int64("order_id", id))
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", id, domainErr.ErrOrderNotFound)
	}

	resp := response.OrderToResponse(order)
	return &resp, nil
}

func (s *orderService) SetOrderStatus(ctx context.Context, username string, id int64, req *request.UpdateOrderStatusRequest) (*response.OrderResponse, error) {
	actor, err := s.resolveActor(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, policy.OpSetOrderStatus, nil); err != nil {
		s.log.Warn("Set order status denied", zap.String("username", username), zap.Int64("order_id", id))
		return nil, err
	}

	next, err := policy.ParseStatus(req.OrderStatus)
	if err != nil {
		s.log.Warn("Set order status validation failed", zap.String("order_status", req.OrderStatus))
		return nil, err
	}

	var previous entity.OrderStatus
	updated, err := s.orders.Mutate(ctx, id, func(order *entity.Order) error {
		if err := policy.CheckTransition(order.Status, next); err != nil {
			return err
		}
		previous = order.Status
		order.Status = next
		return nil
	})
	if err != nil {
		return nil, s.mutationError("set order status", id, username, err)
	}

	s.log.Info("Order status changed",
		zap.Int64("order_id", id),
		zap.String("username", username),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)

	s.publish(ctx, events.OrderStatusChanged, actor, updated, previous)

	resp := response.OrderToResponse(updated)
	return &resp, nil
}

// ==================== HELPER METHODS ====================

// resolveActor loads the user behind a verified token subject. A subject
// whose account is gone or disabled is treated as unauthenticated.
func (s *orderService) resolveActor(ctx context.Context, username string) (*entity.User, error) {
	if username == "" {
		return nil, domainErr.ErrUnauthenticated
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		s.log.Error("Failed to resolve actor", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("resolve actor %s: %w", username, err)
	}
	if user == nil || !user.IsActive {
		s.log.Warn("Token subject has no active account", zap.String("username", username))
		return nil, fmt.Errorf("subject %s: %w", username, domainErr.ErrUnauthenticated)
	}

	return user, nil
}

// authorizeTarget hides orders from non-staff actors who may not touch them:
// they get ErrOrderNotFound instead of ErrForbidden.
func (s *orderService) authorizeTarget(actor *entity.User, op policy.Operation, order *entity.Order) error {
	err := s.authz.Authorize(actor, op, order)
	if err != nil && errors.Is(err, domainErr.ErrForbidden) && !actor.IsStaff {
		s.log.Warn("Order access denied",
			zap.String("operation", string(op)),
			zap.String("username", actor.Username),
			zap.Int64("order_id", order.ID),
		)
		return fmt.Errorf("order %d: %w", order.ID, domainErr.ErrOrderNotFound)
	}
	return err
}

// mutationError logs store failures; policy and lifecycle errors pass
// through untouched.
func (s *orderService) mutationError(operation string, id int64, username string, err error) error {
	for _, kind := range []error{
		domainErr.ErrNotFound,
		domainErr.ErrForbidden,
		domainErr.ErrValidation,
		domainErr.ErrInvalidState,
	} {
		if errors.Is(err, kind) {
			s.log.Warn(operation+" rejected",
				zap.Error(err),
				zap.Int64("order_id", id),
				zap.String("username", username),
			)
			return err
		}
	}

	s.log.Error("Failed to "+operation,
		zap.Error(err),
		zap.Int64("order_id", id),
		zap.String("username", username),
	)
	return fmt.Errorf("%s %d: %w", operation, id, err)
}

// publish emits an order event. Delivery problems are logged, never
// returned: the order change is already committed.
func (s *orderService) publish(ctx context.Context, kind events.EventType, actor *entity.User, order *entity.Order, previous entity.OrderStatus) {
	event := events.OrderEvent{
		Type:           kind,
		OrderID:        order.ID,
		OwnerID:        order.UserID.String(),
		Actor:          actor.Username,
		PizzaSize:      string(order.PizzaSize),
		Quantity:       order.Quantity,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		OccurredAt:     time.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish order event",
			zap.Error(err),
			zap.String("type", string(kind)),
			zap.Int64("order_id", order.ID),
		)
	}
}
