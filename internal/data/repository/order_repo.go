package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizza-delivery/internal/data/entity"
	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OrderRepository is the order store. Mutate and DeleteWith hold a row lock
// for the whole read-check-write so concurrent edits of one order are
// serialized by the database.
type OrderRepository interface {
	// Create assigns ID and timestamps and forces the initial RECEIVED status.
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	FindByIDAndUserID(ctx context.Context, id int64, userID uuid.UUID) (*entity.Order, error)
	FindAll(ctx context.Context) ([]*entity.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error)
	// Mutate locks the order, lets fn change it and persists the result.
	// An error from fn aborts without writing.
	Mutate(ctx context.Context, id int64, fn func(order *entity.Order) error) (*entity.Order, error)
	// DeleteWith locks the order, runs check and deletes it when check passes.
	DeleteWith(ctx context.Context, id int64, check func(order *entity.Order) error) (*entity.Order, error)
}

type orderRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOrderRepository(db database.PgxIface, log *zap.Logger) OrderRepository {
	return &orderRepository{
		db:  db,
		log: log.With(zap.String("repository", "order")),
	}
}

const orderColumns = `id, user_id, pizza_size, quantity, order_status, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (user_id, pizza_size, quantity, order_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	order.Status = entity.OrderStatusReceived

	err := r.db.QueryRow(ctx, query,
		order.UserID,
		order.PizzaSize,
		order.Quantity,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create order",
			zap.Error(err),
			zap.String("user_id", order.UserID.String()),
		)
		return fmt.Errorf("create order for user %s: %w", order.UserID.String(), err)
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		r.log.Error("Failed to find order by ID", zap.Error(err), zap.Int64("order_id", id))
		return nil, fmt.Errorf("find order by ID %d: %w", id, err)
	}

	return order, nil
}

func (r *orderRepository) FindByIDAndUserID(ctx context.Context, id int64, userID uuid.UUID) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		r.log.Error("Failed to find user order",
			zap.Error(err),
			zap.Int64("order_id", id),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find order %d of user %s: %w", id, userID.String(), err)
	}

	return order, nil
}

func (r *orderRepository) FindAll(ctx context.Context) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY id`
	return r.queryOrders(ctx, "find all orders", query)
}

func (r *orderRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY id`
	return r.queryOrders(ctx, "find orders of user "+userID.String(), query, userID)
}

func (r *orderRepository) Mutate(ctx context.Context, id int64, fn func(order *entity.Order) error) (*entity.Order, error) {
	var updated *entity.Order

	err := database.RunInTx(ctx, r.db, func(tx pgx.Tx) error {
		order, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := fn(order); err != nil {
			return err
		}

		query := `
			UPDATE orders
			SET pizza_size = $2, quantity = $3, order_status = $4, updated_at = $5
			WHERE id = $1
		`
		order.UpdatedAt = time.Now()
		if _, err := tx.Exec(ctx, query,
			order.ID,
			order.PizzaSize,
			order.Quantity,
			order.Status,
			order.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to update order", zap.Error(err), zap.Int64("order_id", id))
			return fmt.Errorf("update order %d: %w", id, err)
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *orderRepository) DeleteWith(ctx context.Context, id int64, check func(order *entity.Order) error) (*entity.Order, error) {
	var deleted *entity.Order

	err := database.RunInTx(ctx, r.db, func(tx pgx.Tx) error {
		order, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := check(order); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			r.log.Error("Failed to delete order", zap.Error(err), zap.Int64("order_id", id))
			return fmt.Errorf("delete order %d: %w", id, err)
		}

		deleted = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("Order deleted", zap.Int64("order_id", id))
	return deleted, nil
}

// ==================== HELPER METHODS ====================

func (r *orderRepository) queryOrders(ctx context.Context, what, query string, args ...any) ([]*entity.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query orders", zap.Error(err), zap.String("query", what))
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	orders := make([]*entity.Order, 0)
	for rows.Next() {
		var order entity.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.PizzaSize,
			&order.Quantity,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func lockOrder(ctx context.Context, tx pgx.Tx, id int64) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("lock order %d: %w", id, err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", id, domainErr.ErrOrderNotFound)
	}
	return order, nil
}

// scanOrder maps pgx.ErrNoRows to (nil, nil).
func scanOrder(row pgx.Row) (*entity.Order, error) {
	var order entity.Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.PizzaSize,
		&order.Quantity,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
