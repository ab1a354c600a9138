package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantIDRoundTrip(t *testing.T) {
	ctx := WithTenantID(context.Background(), "acme")
	v, ok := TenantID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "acme", v)
}

func TestTenantIDMissing(t *testing.T) {
	_, ok := TenantID(context.Background())
	assert.False(t, ok)
}

func TestRolesRoundTrip(t *testing.T) {
	ctx := WithRoles(context.Background(), []string{"admin", "viewer"})
	v, ok := Roles(ctx)
	assert.True(t, ok)
	assert.Equal(t, []string{"admin", "viewer"}, v)
}
