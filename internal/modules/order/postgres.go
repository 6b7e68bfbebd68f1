package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

// ErrInsufficientStock is returned when a product no longer has enough stock
// for the quantity being ordered.
var ErrInsufficientStock = errors.New("insufficient stock")

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id,order_number,user_id,status,subtotal,shipping,tax,total,email,
	shipping_address,notes,created_at,updated_at`

// CreateOrder inserts the order and all its items inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders
		  (id, order_number, user_id, status, subtotal, shipping, tax, total, email, shipping_address, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.UserID, o.Status,
		o.Subtotal.String(), o.Shipping.String(), o.Tax.String(), o.Total.String(),
		o.Email, address, o.Notes).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		item.OrderID = o.ID
		item.Position = i
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items
			  (id, order_id, product_id, product_name, product_image, quantity, price, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING created_at`,
			item.ID, o.ID, item.ProductID, item.ProductName, item.ProductImage,
			item.Quantity, item.Price.String(), item.Position).
			Scan(&item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}

		if item.ProductID == nil {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`,
			item.Quantity, *item.ProductID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w for %s", ErrInsufficientStock, item.ProductName)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) getOne(ctx context.Context, where string, arg interface{}) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg)
	o, err := scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID)
	return o, err
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `id=$1`, uid)
}

func (r *postgresRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getOne(ctx, `order_number=$1`, orderNumber)
}

func (r *postgresRepo) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND (id::text ILIKE $%d OR order_number ILIKE $%d)`, len(args), len(args))
	}
	query += ` ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, args...)
}

func (r *postgresRepo) ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []*Order{}, nil
	}
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, uid)
}

// UpdateStatus writes the new status only if the row still holds change.From,
// restocking the items in the same transaction when asked to.
func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, change StatusChange) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		change.To, time.Now(), uid, change.From)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var current OrderStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id=$1`, uid).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: order is %s, not %s", ErrInvalidTransition, current, change.From)
	}

	if change.Restock {
		_, err = tx.ExecContext(ctx, `
			UPDATE products p
			SET stock = p.stock + oi.quantity, updated_at = NOW()
			FROM (
				SELECT product_id, SUM(quantity) AS quantity
				FROM order_items
				WHERE order_id = $1 AND product_id IS NOT NULL
				GROUP BY product_id
			) oi
			WHERE p.id = oi.product_id`, uid)
		if err != nil {
			return fmt.Errorf("restock items: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) Revenue(ctx context.Context) (money.Cents, error) {
	var total string
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0)::text FROM orders WHERE status <> $1`, StatusCancelled).Scan(&total)
	if err != nil {
		return 0, err
	}
	return money.Parse(total)
}

func (r *postgresRepo) CountByStatus(ctx context.Context, status OrderStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE status=$1`, status).Scan(&n)
	return n, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanOrder(scan func(...interface{}) error) (*Order, error) {
	o := &Order{}
	var userID sql.NullString
	var subtotal, shipping, tax, total string
	var address []byte
	var notes sql.NullString
	err := scan(&o.ID, &o.OrderNumber, &userID, &o.Status,
		&subtotal, &shipping, &tax, &total, &o.Email,
		&address, &notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		uid, err := uuid.Parse(userID.String)
		if err != nil {
			return nil, err
		}
		o.UserID = &uid
	}
	for _, f := range []struct {
		dst *money.Cents
		src string
	}{{&o.Subtotal, subtotal}, {&o.Shipping, shipping}, {&o.Tax, tax}, {&o.Total, total}} {
		if *f.dst, err = money.Parse(f.src); err != nil {
			return nil, err
		}
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	o.Notes = notes.String
	return o, nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, product_image, quantity, price, position, created_at
		FROM order_items WHERE order_id=$1 ORDER BY position ASC, id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		var productID, image sql.NullString
		var price string
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.ProductName,
			&image, &item.Quantity, &price, &item.Position, &item.CreatedAt); err != nil {
			return nil, err
		}
		if productID.Valid {
			uid, err := uuid.Parse(productID.String)
			if err != nil {
				return nil, err
			}
			item.ProductID = &uid
		}
		item.ProductImage = image.String
		if item.Price, err = money.Parse(price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
