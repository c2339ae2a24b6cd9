package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventas/backend/internal/domain"
)

var (
	central    = domain.Actor{Username: "hq", Role: domain.RoleCentral}
	miraflores = domain.Actor{Username: "mira", Role: domain.RoleBranch, Branch: "Miraflores"}
)

func TestResolveWriteBranch(t *testing.T) {
	tests := []struct {
		name      string
		actor     domain.Actor
		requested string
		want      string
		wantErr   error
	}{
		{"central uses requested branch", central, "San Isidro", "San Isidro", nil},
		{"central without branch fails", central, "", "", domain.ErrValidation},
		{"central blank branch fails", central, "   ", "", domain.ErrValidation},
		{"branch defaults to home", miraflores, "", "Miraflores", nil},
		{"branch naming own branch ok", miraflores, "Miraflores", "Miraflores", nil},
		{"branch naming other branch denied", miraflores, "San Isidro", "", domain.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWriteBranch(tt.actor, tt.requested)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveReadScopeCentralPassesFilterThrough(t *testing.T) {
	assert.Equal(t, "San Isidro", ResolveReadScope(central, "San Isidro"))
	assert.Equal(t, "", ResolveReadScope(central, ""))
}

func TestResolveReadScopeBranchAlwaysOwnBranch(t *testing.T) {
	// The requested filter is overridden, never rejected.
	for _, requested := range []string{"", "Miraflores", "San Isidro", "does-not-exist"} {
		assert.Equal(t, "Miraflores", ResolveReadScope(miraflores, requested))
	}
}

func TestAuthorizeReadWrite(t *testing.T) {
	own := domain.Sale{Branch: "Miraflores"}
	other := domain.Sale{Branch: "San Isidro"}

	assert.NoError(t, Authorize(central, own, ModeRead))
	assert.NoError(t, Authorize(central, other, ModeWrite))

	assert.NoError(t, Authorize(miraflores, own, ModeRead))
	assert.NoError(t, Authorize(miraflores, own, ModeWrite))
	assert.ErrorIs(t, Authorize(miraflores, other, ModeRead), domain.ErrAccessDenied)
	assert.ErrorIs(t, Authorize(miraflores, other, ModeWrite), domain.ErrAccessDenied)
}

func TestAuthorizeDeleteIsCentralOnly(t *testing.T) {
	own := domain.Sale{Branch: "Miraflores"}

	assert.NoError(t, Authorize(central, own, ModeDelete))
	// BRANCH is denied delete even on records of its own branch.
	assert.ErrorIs(t, Authorize(miraflores, own, ModeDelete), domain.ErrAccessDenied)
}
