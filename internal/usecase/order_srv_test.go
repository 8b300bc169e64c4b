package usecase

import (
	"context"
	"errors"
	"testing"

	"pizza-delivery/internal/data/entity"
	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/internal/domain/policy"
	"pizza-delivery/internal/dto/request"
	"pizza-delivery/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOrderService(f *fixture, opts policy.Options) OrderService {
	return NewOrderService(f.repo, policy.NewAuthorizer(opts), f.publisher, zap.NewNop())
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestOrderLifecycle_AliceAndBob(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	f.users.add("bob", true)
	svc := newOrderService(f, policy.Options{})

	created, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "LARGE", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, entity.OrderStatusReceived, created.OrderStatus)

	_, err = svc.SetOrderStatus(ctx, "bob", 1, &request.UpdateOrderStatusRequest{OrderStatus: "PROCESSING"})
	require.NoError(t, err)

	_, err = svc.UpdateOrder(ctx, "alice", 1, &request.UpdateOrderRequest{PizzaSize: strPtr("MEDIUM")})
	require.ErrorIs(t, err, domainErr.ErrInvalidState)

	delivered, err := svc.SetOrderStatus(ctx, "bob", 1, &request.UpdateOrderStatusRequest{OrderStatus: "DELIVERED"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDelivered, delivered.OrderStatus)

	_, err = svc.SetOrderStatus(ctx, "bob", 1, &request.UpdateOrderStatusRequest{OrderStatus: "PROCESSING"})
	require.ErrorIs(t, err, domainErr.ErrInvalidState)

	stored, err := svc.GetOrderByID(ctx, "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, entity.PizzaSizeLarge, stored.PizzaSize)
	assert.Equal(t, entity.OrderStatusDelivered, stored.OrderStatus)

	assert.Equal(t, []events.EventType{
		events.OrderCreated,
		events.OrderStatusChanged,
		events.OrderStatusChanged,
	}, f.publisher.types())
}

func TestCreateOrder_Quantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	svc := newOrderService(f, policy.Options{})

	_, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "SMALL", Quantity: 0})
	require.ErrorIs(t, err, domainErr.ErrValidation)
	assert.Equal(t, 0, f.orders.writes)

	created, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "SMALL", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, created.Quantity)
	assert.Equal(t, entity.OrderStatusReceived, created.OrderStatus)

	own, err := svc.GetOwnOrder(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, own.Quantity)
}

func TestCreateOrder_UnknownSize(t *testing.T) {
	f := newFixture()
	f.users.add("alice", false)
	svc := newOrderService(f, policy.Options{})

	_, err := svc.CreateOrder(context.Background(), "alice", &request.CreateOrderRequest{PizzaSize: "HUGE", Quantity: 1})
	require.ErrorIs(t, err, domainErr.ErrValidation)
}

func TestSetOrderStatus_UnknownStatusLeavesOrderUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	f.users.add("bob", true)
	svc := newOrderService(f, policy.Options{})

	created, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "MEDIUM", Quantity: 1})
	require.NoError(t, err)
	writes := f.orders.writes

	_, err = svc.SetOrderStatus(ctx, "bob", created.ID, &request.UpdateOrderStatusRequest{OrderStatus: "FLYING"})
	require.ErrorIs(t, err, domainErr.ErrValidation)

	after, err := svc.GetOrderByID(ctx, "bob", created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *after)
	assert.Equal(t, writes, f.orders.writes)
}

func TestSetOrderStatus_RequiresStaff(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	svc := newOrderService(f, policy.Options{})

	created, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "MEDIUM", Quantity: 1})
	require.NoError(t, err)

	_, err = svc.SetOrderStatus(ctx, "alice", created.ID, &request.UpdateOrderStatusRequest{OrderStatus: "CANCELLED"})
	require.ErrorIs(t, err, domainErr.ErrForbidden)
}

func TestSetOrderStatus_CancelOnlyBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	f.users.add("bob", true)
	svc := newOrderService(f, policy.Options{})

	first, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "SMALL", Quantity: 1})
	require.NoError(t, err)
	cancelled, err := svc.SetOrderStatus(ctx, "bob", first.ID, &request.UpdateOrderStatusRequest{OrderStatus: "CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.OrderStatus)

	second, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "SMALL", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.SetOrderStatus(ctx, "bob", second.ID, &request.UpdateOrderStatusRequest{OrderStatus: "OUT_FOR_DELIVERY"})
	require.NoError(t, err)
	_, err = svc.SetOrderStatus(ctx, "bob", second.ID, &request.UpdateOrderStatusRequest{OrderStatus: "CANCELLED"})
	require.ErrorIs(t, err, domainErr.ErrInvalidState)
}

func TestSetOrderStatus_MissingOrder(t *testing.T) {
	f := newFixture()
	f.users.add("bob", true)
	svc := newOrderService(f, policy.Options{})

	_, err := svc.SetOrderStatus(context.Background(), "bob", 42, &request.UpdateOrderStatusRequest{OrderStatus: "PROCESSING"})
	require.ErrorIs(t, err, domainErr.ErrNotFound)
}

func TestDeleteOrder_NonOwnerSeesNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	f.users.add("mallory", false)
	svc := newOrderService(f, policy.Options{})

	created, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "LARGE", Quantity: 1})
	require.NoError(t, err)

	err = svc.DeleteOrder(ctx, "mallory", created.ID)
	require.ErrorIs(t, err, domainErr.ErrOrderNotFound)

	still, err := svc.GetOwnOrder(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, still.ID)
}

func TestDeleteOrder_OwnerAndStaff(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	f.users.add("bob", true)
	svc := newOrderService(f, policy.Options{})

	first, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "LARGE", Quantity: 1})
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "SMALL", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, "alice", first.ID))
	require.NoError(t, svc.DeleteOrder(ctx, "bob", second.ID))

	_, err = svc.GetOwnOrder(ctx, "alice", first.ID)
	require.ErrorIs(t, err, domainErr.ErrNotFound)

	own, err := svc.ListOwnOrders(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, own)
	assert.Contains(t, f.publisher.types(), events.OrderDeleted)
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	f.users.add("mallory", false)
	f.users.add("bob", true)
	svc := newOrderService(f, policy.Options{})

	created, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "LARGE", Quantity: 1})
	require.NoError(t, err)

	t.Run("owner changes quantity only", func(t *testing.T) {
		updated, err := svc.UpdateOrder(ctx, "alice", created.ID, &request.UpdateOrderRequest{Quantity: intPtr(4)})
		require.NoError(t, err)
		assert.Equal(t, 4, updated.Quantity)
		assert.Equal(t, entity.PizzaSizeLarge, updated.PizzaSize)
	})

	t.Run("staff changes size", func(t *testing.T) {
		updated, err := svc.UpdateOrder(ctx, "bob", created.ID, &request.UpdateOrderRequest{PizzaSize: strPtr("EXTRA_LARGE")})
		require.NoError(t, err)
		assert.Equal(t, entity.PizzaSizeExtraLarge, updated.PizzaSize)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		_, err := svc.UpdateOrder(ctx, "mallory", created.ID, &request.UpdateOrderRequest{Quantity: intPtr(9)})
		require.ErrorIs(t, err, domainErr.ErrOrderNotFound)
	})

	t.Run("empty and invalid bodies", func(t *testing.T) {
		writes := f.orders.writes

		_, err := svc.UpdateOrder(ctx, "alice", created.ID, &request.UpdateOrderRequest{})
		require.ErrorIs(t, err, domainErr.ErrValidation)

		_, err = svc.UpdateOrder(ctx, "alice", created.ID, &request.UpdateOrderRequest{Quantity: intPtr(0)})
		require.ErrorIs(t, err, domainErr.ErrValidation)

		_, err = svc.UpdateOrder(ctx, "alice", created.ID, &request.UpdateOrderRequest{PizzaSize: strPtr("TINY")})
		require.ErrorIs(t, err, domainErr.ErrValidation)

		assert.Equal(t, writes, f.orders.writes)
	})
}

func TestPermissiveMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	f.users.add("mallory", false)
	svc := newOrderService(f, policy.Options{PermissiveMutations: true})

	created, err := svc.CreateOrder(ctx, "alice", &request.CreateOrderRequest{PizzaSize: "LARGE", Quantity: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(ctx, "mallory", created.ID, &request.UpdateOrderRequest{Quantity: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Quantity)

	require.NoError(t, svc.DeleteOrder(ctx, "mallory", created.ID))

	// Reads stay owner-scoped
	_, err = svc.GetOwnOrder(ctx, "mallory", created.ID)
	require.ErrorIs(t, err, domainErr.ErrNotFound)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	f.users.add("carol", false)
	f.users.add("bob", true)
	svc := newOrderService(f, policy.Options{})

	for _, name := range []string{"alice", "carol", "alice"} {
		_, err := svc.CreateOrder(ctx, name, &request.CreateOrderRequest{PizzaSize: "MEDIUM", Quantity: 1})
		require.NoError(t, err)
	}

	all, err := svc.ListAllOrders(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.ListAllOrders(ctx, "alice")
	require.ErrorIs(t, err, domainErr.ErrForbidden)

	_, err = svc.GetOrderByID(ctx, "alice", 1)
	require.ErrorIs(t, err, domainErr.ErrForbidden)

	own, err := svc.ListOwnOrders(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, int64(1), own[0].ID)
	assert.Equal(t, int64(3), own[1].ID)

	_, err = svc.GetOwnOrder(ctx, "carol", 1)
	require.ErrorIs(t, err, domainErr.ErrOrderNotFound)
}

func TestOrderService_UnknownOrInactiveActor(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ghost := f.users.add("ghost", false)
	ghost.IsActive = false
	svc := newOrderService(f, policy.Options{})

	_, err := svc.CreateOrder(ctx, "nobody", &request.CreateOrderRequest{PizzaSize: "SMALL", Quantity: 1})
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)

	_, err = svc.ListOwnOrders(ctx, "ghost")
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)

	_, err = svc.ListAllOrders(ctx, "")
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)
}

func TestOrderService_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture()
	f.users.add("alice", false)
	f.publisher.err = errors.New("broker down")
	svc := newOrderService(f, policy.Options{})

	created, err := svc.CreateOrder(context.Background(), "alice", &request.CreateOrderRequest{PizzaSize: "SMALL", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}
