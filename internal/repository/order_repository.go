package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"petkart/internal/model"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// CreateDraft persists a submitted order draft with its lines inside a
// single transaction and returns the order reference.
func (r *orderRepository) CreateDraft(ctx context.Context, draft *model.OrderDraft) (uuid.UUID, error) {
	if draft.Ref == uuid.Nil {
		draft.Ref = uuid.New()
	}
	now := time.Now()
	draft.Status = model.OrderSubmitted
	draft.CreatedAt = now
	draft.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	orderQuery := `
		INSERT INTO orders (
			ref, subtotal, delivery_fee, points_redeemed, discount, total,
			billing_first_name, billing_last_name, billing_street, billing_city,
			billing_postal_code, billing_phone,
			shipping_first_name, shipping_last_name, shipping_street, shipping_city,
			shipping_postal_code, shipping_phone,
			payment_method, contact_email, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err = tx.Exec(ctx, orderQuery,
		draft.Ref, draft.Subtotal, draft.DeliveryFee, draft.PointsRedeemed, draft.Discount, draft.Total,
		draft.Billing.FirstName, draft.Billing.LastName, draft.Billing.Street, draft.Billing.City,
		draft.Billing.PostalCode, draft.Billing.Phone,
		draft.Shipping.FirstName, draft.Shipping.LastName, draft.Shipping.Street, draft.Shipping.City,
		draft.Shipping.PostalCode, draft.Shipping.Phone,
		draft.PaymentMethod, draft.ContactEmail, draft.Status, draft.CreatedAt, draft.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_ref", draft.Ref.String()).Msg("failed to insert order draft")
		return uuid.Nil, fmt.Errorf("failed to insert order draft: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (id, order_ref, product_ref, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for i := range draft.Lines {
		line := &draft.Lines[i]
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderRef = draft.Ref
		batch.Queue(lineQuery, line.ID, line.OrderRef, line.ProductRef, line.Quantity, line.UnitPrice)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(draft.Lines); i++ {
		if _, execErr := results.Exec(); execErr != nil {
			results.Close()
			err = execErr
			r.logger.Error().
				Err(err).
				Str("order_ref", draft.Ref.String()).
				Str("product_ref", draft.Lines[i].ProductRef).
				Msg("failed to insert order line")
			return uuid.Nil, fmt.Errorf("failed to insert order line: %w", err)
		}
	}
	if err = results.Close(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert order lines: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_ref", draft.Ref.String()).Msg("failed to commit transaction")
		return uuid.Nil, fmt.Errorf("failed to create order draft: %w", err)
	}

	r.logger.Info().
		Str("order_ref", draft.Ref.String()).
		Int("line_count", len(draft.Lines)).
		Str("total", draft.Total.String()).
		Msg("order draft created")

	return draft.Ref, nil
}

// GetByRef retrieves an order with its lines.
func (r *orderRepository) GetByRef(ctx context.Context, ref uuid.UUID) (*model.OrderDraft, error) {
	orderQuery := `
		SELECT ref, subtotal, delivery_fee, points_redeemed, discount, total,
		       billing_first_name, billing_last_name, billing_street, billing_city,
		       billing_postal_code, billing_phone,
		       shipping_first_name, shipping_last_name, shipping_street, shipping_city,
		       shipping_postal_code, shipping_phone,
		       payment_method, contact_email, status, created_at, updated_at
		FROM orders
		WHERE ref = $1
	`

	var draft model.OrderDraft
	err := r.pool.QueryRow(ctx, orderQuery, ref).Scan(
		&draft.Ref, &draft.Subtotal, &draft.DeliveryFee, &draft.PointsRedeemed, &draft.Discount, &draft.Total,
		&draft.Billing.FirstName, &draft.Billing.LastName, &draft.Billing.Street, &draft.Billing.City,
		&draft.Billing.PostalCode, &draft.Billing.Phone,
		&draft.Shipping.FirstName, &draft.Shipping.LastName, &draft.Shipping.Street, &draft.Shipping.City,
		&draft.Shipping.PostalCode, &draft.Shipping.Phone,
		&draft.PaymentMethod, &draft.ContactEmail, &draft.Status, &draft.CreatedAt, &draft.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_ref", ref.String()).Msg("order not found")
			return nil, ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_ref", ref.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	linesQuery := `
		SELECT id, order_ref, product_ref, quantity, unit_price
		FROM order_lines
		WHERE order_ref = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, linesQuery, ref)
	if err != nil {
		r.logger.Error().Err(err).Str("order_ref", ref.String()).Msg("failed to query order lines")
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderRef, &line.ProductRef, &line.Quantity, &line.UnitPrice); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		draft.Lines = append(draft.Lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return &draft, nil
}

// MarkPaid transitions an order to paid. The conditional UPDATE makes
// the transition idempotence-safe: a second call reports the conflict
// instead of silently succeeding.
func (r *orderRepository) MarkPaid(ctx context.Context, ref uuid.UUID) error {
	updateQuery := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE ref = $3 AND status <> $1
	`

	tag, err := r.pool.Exec(ctx, updateQuery, model.OrderPaid, time.Now(), ref)
	if err != nil {
		r.logger.Error().Err(err).Str("order_ref", ref.String()).Msg("failed to mark order paid")
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	if tag.RowsAffected() == 1 {
		r.logger.Info().Str("order_ref", ref.String()).Msg("order marked paid")
		return nil
	}

	// Nothing updated: either the order is already paid or it does not exist.
	var status model.OrderStatus
	err = r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE ref = $1`, ref).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to check order status: %w", err)
	}

	if status == model.OrderPaid {
		return ErrAlreadyPaid
	}
	return fmt.Errorf("order %s not transitioned and not paid; status %q", ref, status)
}
