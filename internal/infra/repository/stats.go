package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/soscomida/soscomida/internal/domain"
)

// ImpactCache is the part of *memcache.Client the stats repository uses.
type ImpactCache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

const impactTTL = 10 * time.Minute

// StatsRepository totals institution deliveries and caches the result in
// memcached until the next delivery report invalidates it.
type StatsRepository struct {
	db    *gorm.DB
	cache ImpactCache
}

func NewStatsRepository(db *gorm.DB, cache ImpactCache) *StatsRepository {
	return &StatsRepository{db: db, cache: cache}
}

func impactKey(institutionID string) string {
	return "impact:" + institutionID
}

func (r *StatsRepository) InstitutionImpact(ctx context.Context, institutionID string) (domain.InstitutionImpact, error) {
	ctx, span := tracer.Start(ctx, "Repository.Stats.InstitutionImpact")
	defer span.End()

	key := impactKey(institutionID)
	item, err := r.cache.Get(key)
	if err == nil {
		var cached domain.InstitutionImpact
		if err := json.Unmarshal(item.Value, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, memcache.ErrCacheMiss) {
		slog.WarnContext(ctx, "impact cache read failed",
			slog.String("module", "stats"),
			slog.String("institution", institutionID),
			slog.String("error", err.Error()),
		)
	}

	var out struct {
		Baskets  int64
		FoodKg   float64
		Value    float64
		Requests int64
	}
	err = r.db.WithContext(ctx).
		Table("receipt_requests AS r").
		Joins("JOIN delegations d ON d.receipt_request_id = r.id").
		Select(`COALESCE(SUM(r.baskets_delivered), 0) AS baskets,
			COALESCE(SUM(r.food_kg_delivered), 0) AS food_kg,
			COALESCE(SUM(r.value_delivered), 0) AS value,
			COUNT(*) AS requests`).
		Where("d.institution_id = ? AND d.status = ?", institutionID, string(domain.DelegationConcluded)).
		Scan(&out).Error
	if err != nil {
		span.RecordError(err)
		return domain.InstitutionImpact{}, translate(err, "institution impact")
	}

	impact := domain.InstitutionImpact{
		InstitutionID:    institutionID,
		BasketsDelivered: out.Baskets,
		FoodKgDelivered:  out.FoodKg,
		ValueDelivered:   out.Value,
		RequestsHelped:   out.Requests,
	}

	if raw, err := json.Marshal(impact); err == nil {
		err = r.cache.Set(&memcache.Item{Key: key, Value: raw, Expiration: int32(impactTTL.Seconds())})
		if err != nil {
			slog.WarnContext(ctx, "impact cache write failed",
				slog.String("module", "stats"),
				slog.String("institution", institutionID),
				slog.String("error", err.Error()),
			)
		}
	}
	return impact, nil
}

func (r *StatsRepository) InvalidateInstitution(ctx context.Context, institutionID string) error {
	err := r.cache.Delete(impactKey(institutionID))
	if err == nil || errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return errors.Wrap(err, "invalidate impact cache")
}
