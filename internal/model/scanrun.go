package model

import "time"

// ScanStatus represents the lifecycle state of a duplicate scan.
type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// ScanRun records one batch duplicate scan over a tenant's catalog. A row is
// created when the scan starts and finalized when it completes or fails; a
// run must never be left in "running" after the scan returns.
type ScanRun struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id"`
	StartedAt           time.Time  `json:"started_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	ProductsScanned     int        `json:"products_scanned"`
	CandidatesFound     int        `json:"candidates_found"`
	HighConfidenceCount int        `json:"high_confidence_count"`
	DurationSeconds     float64    `json:"duration_seconds"`
	Status              ScanStatus `json:"status"`
	Error               string     `json:"error,omitempty"`
}

// ScanSummary is the caller-facing result of a completed scan.
type ScanSummary struct {
	ScanID              string  `json:"scan_id"`
	ProductsScanned     int     `json:"products_scanned"`
	CandidatesFound     int     `json:"candidates_found"`
	HighConfidenceCount int     `json:"high_confidence_count"`
	DurationSeconds     float64 `json:"duration_seconds"`
}
