package cogniac

import (
	"context"
	"fmt"
)

// Tenant describes the tenant a connection is authenticated against.
type Tenant struct {
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	TenantType string `json:"tenant_type,omitempty"`
	Region     string `json:"region,omitempty"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

func (t *Tenant) String() string {
	return fmt.Sprintf("%s (%s)", t.Name, t.TenantID)
}

// Tenant returns the currently authenticated tenant.
func (c *Client) Tenant(ctx context.Context) (*Tenant, error) {
	var tenant Tenant
	if err := c.get(ctx, "/1/tenants/current", nil, &tenant); err != nil {
		return nil, fmt.Errorf("failed to fetch tenant: %w", err)
	}
	return &tenant, nil
}
