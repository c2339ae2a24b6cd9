package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ventas/backend/internal/domain"
	"ventas/backend/internal/store"
)

// Store is an in-memory Repository for dev/demo mode and tests. A single
// mutex serializes all writers, which gives the per-record atomicity the
// service relies on.
type Store struct {
	mu              sync.RWMutex
	salesByID       map[string]domain.Sale
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		salesByID:       make(map[string]domain.Sale),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store preloaded with one CENTRAL and one BRANCH user
// account for dev/demo mode. Credentials come from SEED_CENTRAL_PASSWORD and
// SEED_BRANCH_PASSWORD; hardcoded dev defaults are used otherwise, with a
// warning. Production deployments use PostgreSQL (DATABASE_URL set) and never
// hit this path.
func NewSeeded() *Store {
	s := New()
	for username, account := range seedUsers() {
		s.usersByUsername[username] = account
	}
	return s
}

func seedUsers() map[string]domain.UserAccount {
	centralPwd := envOr("SEED_CENTRAL_PASSWORD", "central123")
	branchPwd := envOr("SEED_BRANCH_PASSWORD", "branch123")
	if os.Getenv("SEED_CENTRAL_PASSWORD") == "" || os.Getenv("SEED_BRANCH_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_CENTRAL_PASSWORD and SEED_BRANCH_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     domain.Role
		branch   string
	}{
		{"central", centralPwd, domain.RoleCentral, ""},
		{"miraflores", branchPwd, domain.RoleBranch, "Miraflores"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Branch:    u.branch,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale.ID = uuid.NewString()
	s.salesByID[sale.ID] = sale

	created := sale
	return &created, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := sale
	return &found, nil
}

func (s *Store) SaleExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.salesByID[id]
	return ok, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.salesByID[sale.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.salesByID[sale.ID] = sale

	saved := sale
	return &saved, nil
}

func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.salesByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.salesByID, id)
	return nil
}

func (s *Store) SearchSales(_ context.Context, from time.Time, to time.Time, branch string, page int, size int) ([]domain.Sale, int64, error) {
	s.mu.RLock()
	matched := s.salesInRange(from, to, branch)
	s.mu.RUnlock()

	total := int64(len(matched))

	start := page * size
	if start >= len(matched) {
		return []domain.Sale{}, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) FindSalesInRange(_ context.Context, from time.Time, to time.Time, branch string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salesInRange(from, to, branch), nil
}

// salesInRange filters on the half-open window [from, to) and orders by
// sold-at descending, id ascending on equal instants. Callers must hold mu.
func (s *Store) salesInRange(from time.Time, to time.Time, branch string) []domain.Sale {
	matched := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if sale.SoldAt.Before(from) || !sale.SoldAt.Before(to) {
			continue
		}
		if branch != "" && sale.Branch != branch {
			continue
		}
		matched = append(matched, sale)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SoldAt.Equal(matched[j].SoldAt) {
			return matched[i].SoldAt.After(matched[j].SoldAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
