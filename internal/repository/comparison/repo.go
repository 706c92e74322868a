// Package comparison stores the latest comparison result per city.
package comparison

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/labcompare/internal/db"
	"github.com/kailas-cloud/labcompare/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "comparison:"

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements compare.Repository on the key-value store.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a repository. A zero ttl keeps records forever.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save overwrites the record for the comparison's city.
func (r *Repo) Save(ctx context.Context, c *domain.Comparison) error {
	data, err := json.Marshal(toDTO(c))
	if err != nil {
		return fmt.Errorf("marshal comparison: %w", err)
	}

	key := cityKey(c.City)
	if r.ttl > 0 {
		err = r.store.SetWithTTL(ctx, key, data, r.ttl)
	} else {
		err = r.store.Set(ctx, key, data)
	}
	if err != nil {
		return fmt.Errorf("save comparison %s: %w", c.City, err)
	}
	return nil
}

// Get returns the latest comparison for city or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, city string) (*domain.Comparison, error) {
	data, err := r.store.Get(ctx, cityKey(city))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get comparison %s: %w", city, err)
	}
	return decode(data)
}

// List returns the stored comparisons, most recent first.
func (r *Repo) List(ctx context.Context) ([]*domain.Comparison, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan comparisons: %w", err)
	}

	out := make([]*domain.Comparison, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if errors.Is(err, db.ErrKeyNotFound) {
			// expired between SCAN and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		c, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes the record for city. Missing records are not an error.
func (r *Repo) Delete(ctx context.Context, city string) error {
	if err := r.store.Del(ctx, cityKey(city)); err != nil {
		return fmt.Errorf("delete comparison %s: %w", city, err)
	}
	return nil
}

// cityKey folds case and inner whitespace so "New  Delhi" and "new delhi" share a record.
func cityKey(city string) string {
	return keyPrefix + strings.ToLower(strings.Join(strings.Fields(city), "-"))
}

func decode(data []byte) (*domain.Comparison, error) {
	var d comparisonDTO
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal comparison: %w", err)
	}
	return fromDTO(d), nil
}
