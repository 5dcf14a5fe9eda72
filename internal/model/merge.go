package model

import "time"

// AliasSource records how an alias mapping came to exist.
type AliasSource string

const (
	AliasSourceManual      AliasSource = "manual"
	AliasSourceAIConfirmed AliasSource = "ai_confirmed"
)

// ProductAliasMapping translates a merged-away variant name to its canonical
// name. The ingest pipeline consults these before creating new product rows
// so previously merged variants do not resurrect duplicates. At most one
// active mapping exists per (tenant, variant).
type ProductAliasMapping struct {
	ID            string      `json:"id"`
	TenantID      string      `json:"tenant_id"`
	VariantName   string      `json:"variant_name"`
	CanonicalName string      `json:"canonical_name"`
	Confidence    float64     `json:"confidence"`
	Source        AliasSource `json:"source"`
	CreatedBy     string      `json:"created_by"`
	Active        bool        `json:"active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// MergeType distinguishes operator-initiated merges from confirmed scan
// candidates.
type MergeType string

const (
	MergeTypeManual MergeType = "manual"
	MergeTypeAIBulk MergeType = "ai_bulk"
)

// MergeAuditEntry is the append-only record of an executed merge. Entries
// are never mutated after creation. CanUndo is persisted for forward
// compatibility but no reversal operation exists.
type MergeAuditEntry struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	MergeType       MergeType `json:"merge_type"`
	SourceNames     []string  `json:"source_names"`
	CanonicalName   string    `json:"canonical_name"`
	Confidence      *float64  `json:"confidence,omitempty"`
	Reasoning       string    `json:"reasoning,omitempty"`
	RecordsAffected int       `json:"records_affected"`
	PerformedBy     string    `json:"performed_by"`
	CanUndo         bool      `json:"can_undo"`
	CreatedAt       time.Time `json:"created_at"`
}
