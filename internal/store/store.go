package store

import (
	"context"
	"errors"
	"time"

	"ventas/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Repository is the record store collaborator. SearchSales and
// FindSalesInRange take a half-open window: sold_at >= from AND sold_at < to.
// branch "" means all branches. Implementations are responsible for
// per-record atomicity and for serializing concurrent writers to the same id.
type Repository interface {
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	SaleExists(ctx context.Context, id string) (bool, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	SearchSales(ctx context.Context, from time.Time, to time.Time, branch string, page int, size int) ([]domain.Sale, int64, error)
	FindSalesInRange(ctx context.Context, from time.Time, to time.Time, branch string) ([]domain.Sale, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
