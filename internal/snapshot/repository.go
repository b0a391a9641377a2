package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
)

var ErrNotFound = errors.New("not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	Save(ctx context.Context, list *SharedList) error
	Get(ctx context.Context, id string) (*SharedList, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts the list header and its item rows in one transaction. A missing
// id is generated here; snapshots have no update path, so Save is insert-only.
func (r *PostgresRepository) Save(ctx context.Context, list *SharedList) error {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO shared_lists (id, name, business_name, total_cost)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, list.ID, list.Name, list.BusinessName, list.TotalCost).Scan(&list.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert shared list: %w", err)
	}

	for _, it := range list.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO shared_list_items (id, list_id, product_id, name, price, quantity, image, category, requirement_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.NewString(), list.ID, it.ProductID, it.Name, it.Price, it.Quantity, it.Image, it.Category, it.RequirementName)
		if err != nil {
			return fmt.Errorf("insert shared list item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*SharedList, error) {
	// Malformed ids are a not-found, not a database error; the id column is a
	// uuid and postgres would reject the comparison otherwise.
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var list SharedList
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, business_name, total_cost, created_at
		FROM shared_lists WHERE id = $1
	`, id)
	if err := row.Scan(&list.ID, &list.Name, &list.BusinessName, &list.TotalCost, &list.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select shared list: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, name, price, quantity, image, category, requirement_name
		FROM shared_list_items WHERE list_id = $1
		ORDER BY product_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("select shared list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it cart.LineItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Image, &it.Category, &it.RequirementName); err != nil {
			return nil, fmt.Errorf("scan shared list item: %w", err)
		}
		list.Items = append(list.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared list items: %w", err)
	}

	return &list, nil
}
