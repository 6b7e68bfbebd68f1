package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id,name,slug,description,price,discount_price,stock,category,brand,form,
	tags,images,benefits,ingredients,how_to_use,rating_avg,rating_count,is_bestseller,is_new,created_at,updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products
		  (id,name,slug,description,price,discount_price,stock,category,brand,form,
		   tags,images,benefits,ingredients,how_to_use,is_bestseller,is_new)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Slug, p.Description, p.Price.String(), nullableAmount(p.DiscountPrice),
		p.Stock, p.Category, p.Brand, p.Form,
		pq.Array(p.Tags), pq.Array(p.Images), pq.Array(p.Benefits),
		p.Ingredients, p.HowToUse, p.IsBestseller, p.IsNew).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	var price string
	var discount sql.NullString
	var tags, images, benefits pq.StringArray
	err := scan(&p.ID, &p.Name, &p.Slug, &p.Description, &price, &discount,
		&p.Stock, &p.Category, &p.Brand, &p.Form,
		&tags, &images, &benefits, &p.Ingredients, &p.HowToUse,
		&p.RatingAvg, &p.RatingCount, &p.IsBestseller, &p.IsNew,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Price, err = money.Parse(price); err != nil {
		return nil, err
	}
	if discount.Valid {
		d, err := money.Parse(discount.String)
		if err != nil {
			return nil, err
		}
		p.DiscountPrice = &d
	}
	p.Tags = []string(tags)
	p.Images = []string(images)
	p.Benefits = []string(benefits)
	return p, nil
}

func (r *postgresRepo) getOne(ctx context.Context, where string, arg interface{}) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE `+where, arg)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `id=$1`, uid)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return r.getOne(ctx, `slug=$1`, slug)
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, pq.Array(strs))
}

func (r *postgresRepo) List(ctx context.Context) ([]Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

func (r *postgresRepo) query(ctx context.Context, query string, args ...interface{}) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name=$1, slug=$2, description=$3, price=$4, discount_price=$5, stock=$6,
		    category=$7, brand=$8, form=$9, tags=$10, images=$11, benefits=$12,
		    ingredients=$13, how_to_use=$14, is_bestseller=$15, is_new=$16, updated_at=NOW()
		WHERE id=$17`,
		p.Name, p.Slug, p.Description, p.Price.String(), nullableAmount(p.DiscountPrice), p.Stock,
		p.Category, p.Brand, p.Form, pq.Array(p.Tags), pq.Array(p.Images), pq.Array(p.Benefits),
		p.Ingredients, p.HowToUse, p.IsBestseller, p.IsNew, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return expectOneRow(res)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, uid)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectOneRow(res)
}

func (r *postgresRepo) UpdateStock(ctx context.Context, id string, stock int) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock=$1, updated_at=NOW() WHERE id=$2`, stock, uid)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return expectOneRow(res)
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

func nullableAmount(c *money.Cents) interface{} {
	if c == nil {
		return nil
	}
	return c.String()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
