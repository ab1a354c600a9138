package learned

import "time"

// Mapping is a remembered resolution: a normalized query term that already
// resolved to a provider indicator code, kept so the next request for the
// same term skips straight to SourceDatabase confidence instead of
// re-running the translator/catalog chain.
type Mapping struct {
	ID              int64     `gorm:"primaryKey"`
	QueryNormalized string    `gorm:"column:query_normalized;index:idx_learned_mappings_lookup,unique"`
	Provider        string    `gorm:"column:provider;index:idx_learned_mappings_lookup,unique"`
	Country         string    `gorm:"column:country;index:idx_learned_mappings_lookup,unique"`
	IndicatorCode   string    `gorm:"column:indicator_code"`
	IndicatorName   string    `gorm:"column:indicator_name"`
	Confidence      float64   `gorm:"column:confidence"`
	HitCount        int64     `gorm:"column:hit_count"`
	LastUsedAt      time.Time `gorm:"column:last_used_at"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName pins the table name so it matches the embedded SQL migrations.
func (Mapping) TableName() string { return "learned_mappings" }
