package comparison

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/labcompare/internal/domain"
)

func sample(city string, at time.Time) *domain.Comparison {
	prices := domain.PriceTable{}
	prices.Set(domain.TestCBC, "Lal PathLabs", 500)
	prices.Set(domain.TestCBC, "Metropolis Labs", 450)
	return &domain.Comparison{
		RunID:  "run-" + city,
		City:   city,
		Labs:   []domain.LabID{"Lal PathLabs", "Metropolis Labs"},
		Prices: prices,
		Recommendations: []domain.Recommendation{
			{Test: domain.TestCBC, Lab: "Metropolis Labs", Price: 450, Max: 500},
		},
		CreatedAt: at,
	}
}

func TestSaveGet_RoundTrip(t *testing.T) {
	ms := newMockStore()
	r := New(ms, time.Hour)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	if err := r.Save(ctx, sample("Mumbai", at)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ms.ttls["labcompare:comparison:mumbai"] != time.Hour {
		t.Errorf("expected TTL on saved key, got %v", ms.ttls)
	}

	got, err := r.Get(ctx, "  MUMBAI ")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.City != "Mumbai" || got.RunID != "run-Mumbai" || !got.CreatedAt.Equal(at) {
		t.Errorf("unexpected record %+v", got)
	}
	if len(got.Labs) != 2 || got.Labs[0] != "Lal PathLabs" {
		t.Errorf("lab order lost: %v", got.Labs)
	}
	if got.Prices[domain.TestCBC]["Metropolis Labs"] != 450 {
		t.Errorf("prices lost: %v", got.Prices)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Lab != "Metropolis Labs" {
		t.Errorf("recommendations lost: %+v", got.Recommendations)
	}
}

func TestSave_NoTTL(t *testing.T) {
	ms := newMockStore()
	r := New(ms, 0)
	if err := r.Save(context.Background(), sample("Pune", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := ms.ttls["labcompare:comparison:pune"]; ok {
		t.Error("zero ttl must use plain SET")
	}
	if _, ok := ms.data["labcompare:comparison:pune"]; !ok {
		t.Error("record not stored")
	}
}

func TestSave_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.setFn = func(context.Context, string, []byte) error { return errors.New("oom") }
	if err := New(ms, 0).Save(context.Background(), sample("Pune", time.Now())); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := New(newMockStore(), 0).Get(context.Background(), "Nowhere")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_CorruptRecord(t *testing.T) {
	ms := newMockStore()
	ms.data["labcompare:comparison:delhi"] = []byte("{not json")
	_, err := New(ms, 0).Get(context.Background(), "Delhi")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestList_MostRecentFirst(t *testing.T) {
	ms := newMockStore()
	r := New(ms, 0)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	for i, city := range []string{"Mumbai", "New Delhi", "Pune"} {
		if err := r.Save(ctx, sample(city, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if ms.lastPrefix != "labcompare:comparison:*" {
		t.Errorf("scan pattern = %q", ms.lastPrefix)
	}
	if len(list) != 3 || list[0].City != "Pune" || list[2].City != "Mumbai" {
		t.Errorf("unexpected order: %v, %v, %v", list[0].City, list[1].City, list[2].City)
	}
}

func TestList_SkipsExpiredKeys(t *testing.T) {
	ms := newMockStore()
	ms.scanFn = func(context.Context, string) ([]string, error) {
		return []string{"labcompare:comparison:gone"}, nil
	}
	list, err := New(ms, 0).List(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v, %v", list, err)
	}
}

func TestDelete(t *testing.T) {
	ms := newMockStore()
	r := New(ms, 0)
	ctx := context.Background()
	_ = r.Save(ctx, sample("Chennai", time.Now()))

	if err := r.Delete(ctx, "chennai"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(ctx, "Chennai"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCityKey(t *testing.T) {
	tests := map[string]string{
		"Mumbai":         "labcompare:comparison:mumbai",
		" New   Delhi ":  "labcompare:comparison:new-delhi",
		"BENGALURU":      "labcompare:comparison:bengaluru",
	}
	for in, want := range tests {
		if got := cityKey(in); got != want {
			t.Errorf("cityKey(%q) = %q, want %q", in, got, want)
		}
	}
}
