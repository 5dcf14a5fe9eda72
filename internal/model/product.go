// Package model defines the catalog records handled by the deduplication engine.
package model

import "time"

// Product is a tenant-scoped catalog entry with aggregated sales metrics.
// Rows are created by the ingest pipeline; the merge executor rewrites the
// canonical product's metrics but never deletes merged-away rows, so the
// audit trail stays resolvable.
type Product struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	Name         string     `json:"name"`
	TotalRevenue float64    `json:"total_revenue"`
	TotalOrders  int        `json:"total_orders"`
	LastSaleAt   *time.Time `json:"last_sale_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
