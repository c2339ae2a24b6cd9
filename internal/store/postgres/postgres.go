package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"ventas/backend/internal/domain"
	"ventas/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	sale.ID = uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (id, sku, units, price, branch, sold_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sale.ID, sale.SKU, sale.Units, sale.Price, sale.Branch, sale.SoldAt, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sku, units, price, branch, sold_at, created_at
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.SKU, &sale.Units, &sale.Price, &sale.Branch, &sale.SoldAt, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *Store) SaleExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM sales WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateSale writes the mutable fields in a single statement, so the record
// either fully lands or stays untouched.
func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sales
		SET sku = $2, units = $3, price = $4, branch = $5, sold_at = $6
		WHERE id = $1
	`, sale.ID, sale.SKU, sale.Units, sale.Price, sale.Branch, sale.SoldAt)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	saved := sale
	return &saved, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SearchSales(ctx context.Context, from time.Time, to time.Time, branch string, page int, size int) ([]domain.Sale, int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		  AND ($3 = '' OR branch = $3)
	`, from, to, branch).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, units, price, branch, sold_at, created_at
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		  AND ($3 = '' OR branch = $3)
		ORDER BY sold_at DESC, id
		LIMIT $4 OFFSET $5
	`, from, to, branch, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sales, err := scanSales(rows)
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (s *Store) FindSalesInRange(ctx context.Context, from time.Time, to time.Time, branch string) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, units, price, branch, sold_at, created_at
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		  AND ($3 = '' OR branch = $3)
		ORDER BY sold_at, id
	`, from, to, branch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSales(rows)
}

func scanSales(rows *sql.Rows) ([]domain.Sale, error) {
	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.SKU, &sale.Units, &sale.Price, &sale.Branch, &sale.SoldAt, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, branch, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, user.Username, user.Password, string(user.Role), user.Branch, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, branch, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		var role string
		if err := rows.Scan(&user.Username, &user.Password, &role, &user.Branch, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.Role = domain.Role(role)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
