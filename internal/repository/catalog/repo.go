// Package catalog implements the expert catalog store over Redis hashes.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/expertmatch/internal/db"
	"github.com/kailas-cloud/expertmatch/internal/domain"
	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/expertmatch/internal/domain/search/query"
)

// store is the consumer interface for the catalog (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the catalog-store contract consumed by the ranking and
// ingest usecases. The catalog is small enough (profile records, not
// documents) that predicate filtering happens in process after a pipelined
// HGETALL; the ranking core never sees this detail.
type Repo struct {
	store  store
	prefix string
}

// New creates a catalog repository. keyPrefix namespaces all keys.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// FindMany returns profiles matching the filter, ordered per order, with
// offset/limit pagination. limit <= 0 returns everything after offset,
// which the hybrid ranking path uses to score the full candidate set.
func (r *Repo) FindMany(
	ctx context.Context, f filter.Filter, order query.Order, limit, offset int,
) ([]expert.Profile, error) {
	profiles, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := profiles[:0]
	for i := range profiles {
		if f.Matches(&profiles[i]) {
			matched = append(matched, profiles[i])
		}
	}

	if order == query.OrderTopRated {
		sort.SliceStable(matched, func(i, j int) bool {
			ri, rj := matched[i].RatingOrZero(), matched[j].RatingOrZero()
			if ri != rj {
				return ri > rj
			}
			return matched[i].ExperienceOrZero() > matched[j].ExperienceOrZero()
		})
	}

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count returns the number of profiles matching the filter.
func (r *Repo) Count(ctx context.Context, f filter.Filter) (int, error) {
	profiles, err := r.loadAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range profiles {
		if f.Matches(&profiles[i]) {
			n++
		}
	}
	return n, nil
}

// Get returns a single profile by id.
func (r *Repo) Get(ctx context.Context, id string) (expert.Profile, error) {
	key := r.expertKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return expert.Profile{}, fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return expert.Profile{}, domain.ErrExpertNotFound
	}

	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return expert.Profile{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return parseHashFields(id, m), nil
}

// Upsert creates or replaces a profile.
func (r *Repo) Upsert(ctx context.Context, p expert.Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	if err := r.store.HSet(ctx, r.expertKey(p.ID), buildHashFields(&p)); err != nil {
		return fmt.Errorf("hset %s: %w", p.ID, err)
	}
	return nil
}

// UpsertMany stores a batch of profiles in one pipelined round-trip.
func (r *Repo) UpsertMany(ctx context.Context, profiles []expert.Profile) error {
	items := make([]db.HashSetItem, 0, len(profiles))
	for i := range profiles {
		if profiles[i].ID == "" {
			return fmt.Errorf("profile %d: id is required", i)
		}
		items = append(items, db.HashSetItem{
			Key:    r.expertKey(profiles[i].ID),
			Fields: buildHashFields(&profiles[i]),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	return nil
}

// loadAll scans the expert keyspace and parses every profile, ordered by id
// for determinism.
func (r *Repo) loadAll(ctx context.Context) ([]expert.Profile, error) {
	keys, err := r.store.Scan(ctx, r.expertKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan experts: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	profiles := make([]expert.Profile, 0, len(maps))
	for i, m := range maps {
		if len(m) == 0 {
			continue // key expired between SCAN and HGETALL
		}
		profiles = append(profiles, parseHashFields(r.expertID(keys[i]), m))
	}
	return profiles, nil
}

func (r *Repo) expertKey(id string) string {
	return r.prefix + "expert:" + id
}

func (r *Repo) expertID(key string) string {
	return strings.TrimPrefix(key, r.prefix+"expert:")
}
