// Package learned persists resolutions the Indicator Resolver has already
// made, so a natural-language term seen once is remembered across requests
// and future process restarts instead of re-running the translator/catalog
// chain every time. A gorm.DB wrapped with a narrow, purpose-built API and
// its own embedded migrations, sized to the one table this store needs
// rather than general-purpose multi-table infrastructure.
package learned

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/econdata/econfed/internal/model"
)

// Store is the learned-mapping store. A nil *Store is valid and every
// method on it is a no-op, so callers that run without a database
// configured (local/dev mode) can hold a nil *Store instead of branching
// on a "have I got persistence" flag everywhere.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New wraps db in a Store. db must already have its schema migrated (see
// Migrate) and AutoMigrate is intentionally not called here — schema
// changes flow through the versioned SQL migrations, not GORM's implicit
// migrator.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

// Lookup returns a previously learned mapping for (query, provider,
// country), if one exists. provider/country use the same "any" wildcard
// convention as internal/resolve's cache key — an empty hint matches the
// mapping recorded without that hint.
func (s *Store) Lookup(ctx context.Context, query, provider, country string) (model.ResolvedIndicator, bool) {
	if s == nil || s.db == nil {
		return model.ResolvedIndicator{}, false
	}

	var row Mapping
	err := s.db.WithContext(ctx).
		Where("query_normalized = ? AND provider = ? AND country = ?", normalize(query), orAny(provider), orAny(country)).
		First(&row).Error
	if err != nil {
		return model.ResolvedIndicator{}, false
	}

	go s.touch(row.ID)

	return model.ResolvedIndicator{
		Code:       row.IndicatorCode,
		Provider:   row.Provider,
		Name:       row.IndicatorName,
		Confidence: row.Confidence,
		Source:     model.SourceDatabase,
	}, true
}

// touch bumps hit_count/last_used_at for a served mapping. Run in its own
// goroutine from Lookup since it has no bearing on the result already
// returned to the caller, and a lookup should never block on it.
func (s *Store) touch(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.db.WithContext(ctx).Model(&Mapping{}).Where("id = ?", id).
		Updates(map[string]any{
			"hit_count":    gorm.Expr("hit_count + 1"),
			"last_used_at": time.Now(),
		}).Error; err != nil {
		s.logger.Warn("learned: failed to update hit count", zap.Int64("id", id), zap.Error(err))
	}
}

// Record remembers that query resolved to indicatorCode/indicatorName at
// the given confidence, upserting on the (query, provider, country) key so
// a repeated resolution just refreshes the existing row.
func (s *Store) Record(ctx context.Context, query, provider, country, indicatorCode, indicatorName string, confidence float64) error {
	if s == nil || s.db == nil {
		return nil
	}

	row := Mapping{
		QueryNormalized: normalize(query),
		Provider:        orAny(provider),
		Country:         orAny(country),
		IndicatorCode:   indicatorCode,
		IndicatorName:   indicatorName,
		Confidence:      confidence,
		HitCount:        1,
		LastUsedAt:      time.Now(),
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "query_normalized"}, {Name: "provider"}, {Name: "country"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"indicator_code", "indicator_name", "confidence", "last_used_at",
		}),
	}).Create(&row).Error
}
