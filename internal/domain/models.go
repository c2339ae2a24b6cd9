package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a closed set: every caller is either central office or a branch.
type Role string

const (
	RoleCentral Role = "CENTRAL"
	RoleBranch  Role = "BRANCH"
)

func (r Role) Valid() bool {
	return r == RoleCentral || r == RoleBranch
}

// Actor is the caller identity for the current request. Branch is only set
// when Role is RoleBranch.
type Actor struct {
	Username string
	Role     Role
	Branch   string
}

// Sale is a single sales record. ID is assigned by the store on creation and
// never changes afterwards.
type Sale struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Units     int             `json:"units"`
	Price     decimal.Decimal `json:"price"`
	Branch    string          `json:"branch"`
	SoldAt    time.Time       `json:"sold_at"`
	CreatedAt time.Time       `json:"created_at"`
}

type SaleCreateRequest struct {
	SKU    string          `json:"sku"`
	Units  int             `json:"units"`
	Price  decimal.Decimal `json:"price"`
	Branch string          `json:"branch"`
	SoldAt time.Time       `json:"sold_at"`
}

// SaleUpdateRequest is a partial patch: nil fields leave the stored value
// unchanged.
type SaleUpdateRequest struct {
	Units *int             `json:"units,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// SaleFilter bounds a listing or aggregation window. From and To are
// inclusive calendar dates; nil means unbounded on that side. Branch "" means
// all branches (subject to read-scope resolution).
type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Branch string
	Page   int
	Size   int
}

type SalePage struct {
	Items      []Sale `json:"items"`
	TotalCount int64  `json:"total_count"`
	Page       int    `json:"page"`
	Size       int    `json:"size"`
	TotalPages int    `json:"total_pages"`
}

// SaleSummary is computed on demand over a filtered window and never
// persisted. TopSKU and TopBranch are nil when the window is empty.
type SaleSummary struct {
	TotalUnits   int64           `json:"total_units"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TopSKU       *string         `json:"top_sku,omitempty"`
	TopBranch    *string         `json:"top_branch,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        Role   `json:"role"`
	Branch      string `json:"branch,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Branch   string `json:"branch,omitempty"`
}

type UserView struct {
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Branch    string    `json:"branch,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is the internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      Role
	Branch    string
	Active    bool
	CreatedAt time.Time
}
