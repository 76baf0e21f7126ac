package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": NewSQLite(db.NewTestDB(t)),
	}
}

// forEachBackend runs fn as a subtest against every implementation.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) { fn(t, s) })
	}
}

func strPtr(s string) *string { return &s }

func datePtr(d model.Date) *model.Date { return &d }

func laptop(code string) model.Item {
	return model.Item{
		ItemCode:        code,
		Name:            "Laptop",
		Quantity:        10,
		ProcurementDate: model.NewDate(2023, time.January, 15),
	}
}

func codes(items []model.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ItemCode
	}
	return out
}

func TestCreateAndGetItem(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		item := laptop("LAP001")
		item.Image = strPtr("http://example.com/laptop.jpg")
		item.Description = strPtr("High performance laptop")
		item.ManufacturingDate = datePtr(model.NewDate(2022, time.December, 1))

		created, err := s.Create(ctx, item)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !reflect.DeepEqual(created, item) {
			t.Errorf("Create returned %+v, want %+v", created, item)
		}

		got, err := s.Get(ctx, "LAP001")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !reflect.DeepEqual(got, item) {
			t.Errorf("Get returned %+v, want %+v", got, item)
		}
	})
}

func TestCreateGeneratesItemCode(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		created, err := s.Create(ctx, laptop(""))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		parsed, err := uuid.Parse(created.ItemCode)
		if err != nil {
			t.Fatalf("expected a UUID item code, got %q: %v", created.ItemCode, err)
		}
		if parsed.Version() != 4 {
			t.Errorf("expected version 4 UUID, got %d", parsed.Version())
		}

		got, err := s.Get(ctx, created.ItemCode)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !reflect.DeepEqual(got, created) {
			t.Errorf("Get returned %+v, want %+v", got, created)
		}

		other, _ := s.Create(ctx, laptop(""))
		if other.ItemCode == created.ItemCode {
			t.Error("expected distinct generated codes")
		}
	})
}

func TestCreateDuplicateItemCode(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		original := laptop("LAP001")
		if _, err := s.Create(ctx, original); err != nil {
			t.Fatalf("Create: %v", err)
		}

		dup := laptop("LAP001")
		dup.Name = "Impostor"
		dup.Quantity = 99
		if _, err := s.Create(ctx, dup); !errors.Is(err, ErrDuplicateItemCode) {
			t.Fatalf("expected ErrDuplicateItemCode, got %v", err)
		}

		got, _ := s.Get(ctx, "LAP001")
		if !reflect.DeepEqual(got, original) {
			t.Errorf("original item changed: %+v", got)
		}

		// Codes are case-sensitive.
		if _, err := s.Create(ctx, laptop("lap001")); err != nil {
			t.Errorf("expected lower-case code to be accepted: %v", err)
		}
	})
}

func TestUpdateItem(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		s.Create(ctx, laptop("LAP001"))

		// Wholesale replacement drops fields missing from the new record.
		withDesc := laptop("LAP001")
		withDesc.Description = strPtr("old")
		if _, err := s.Update(ctx, "LAP001", withDesc); err != nil {
			t.Fatalf("Update: %v", err)
		}

		replacement := model.Item{
			ItemCode:        "LAP001",
			Name:            "Laptop Pro",
			Quantity:        3,
			ProcurementDate: model.NewDate(2024, time.February, 1),
			ExpiryDate:      datePtr(model.NewDate(2027, time.February, 1)),
		}
		updated, err := s.Update(ctx, "LAP001", replacement)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !reflect.DeepEqual(updated, replacement) {
			t.Errorf("Update returned %+v", updated)
		}

		got, _ := s.Get(ctx, "LAP001")
		if !reflect.DeepEqual(got, replacement) {
			t.Errorf("stored item %+v, want %+v", got, replacement)
		}
	})
}

func TestUpdateNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		// A missing path code wins over a mismatched body code.
		if _, err := s.Update(ctx, "NOPE", laptop("OTHER")); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
		if _, err := s.Get(ctx, "NOPE"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("Update must not create items, Get returned %v", err)
		}
	})
}

func TestUpdateCodeMismatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		original := laptop("LAP001")
		s.Create(ctx, original)

		for _, code := range []string{"LAP002", "", "lap001"} {
			changed := laptop(code)
			changed.Name = "Changed"
			if _, err := s.Update(ctx, "LAP001", changed); !errors.Is(err, ErrItemCodeMismatch) {
				t.Errorf("body code %q: expected ErrItemCodeMismatch, got %v", code, err)
			}
		}

		got, _ := s.Get(ctx, "LAP001")
		if !reflect.DeepEqual(got, original) {
			t.Errorf("item changed after mismatched update: %+v", got)
		}
		if _, err := s.Get(ctx, "LAP002"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("expected no LAP002 item, got %v", err)
		}
	})
}

func TestDeleteItem(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		s.Create(ctx, laptop("LAP001"))

		if err := s.Delete(ctx, "LAP001"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, "LAP001"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, "LAP001"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound on second delete, got %v", err)
		}

		// The code is free for reuse.
		if _, err := s.Create(ctx, laptop("LAP001")); err != nil {
			t.Errorf("expected code reuse after delete: %v", err)
		}
	})
}

func TestSearchItems(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		pro := laptop("A")
		pro.Name = "Laptop Pro"
		pro.ExpiryDate = datePtr(model.NewDate(2026, time.May, 1))

		air := laptop("B")
		air.Name = "MacBook Air laptop"
		air.ProcurementDate = model.NewDate(2023, time.March, 2)

		mouse := laptop("C")
		mouse.Name = "Mouse"
		mouse.ExpiryDate = datePtr(model.NewDate(2026, time.May, 1))

		for _, item := range []model.Item{pro, air, mouse} {
			if _, err := s.Create(ctx, item); err != nil {
				t.Fatalf("Create %s: %v", item.ItemCode, err)
			}
		}

		tests := []struct {
			name   string
			filter model.SearchFilter
			want   []string
		}{
			{"no filters", model.SearchFilter{}, []string{"A", "B", "C"}},
			{"name case-insensitive", model.SearchFilter{Name: strPtr("LAPTOP")}, []string{"A", "B"}},
			{"procurement date", model.SearchFilter{ProcurementDate: datePtr(model.NewDate(2023, time.January, 15))}, []string{"A", "C"}},
			{"expiry date", model.SearchFilter{ExpiryDate: datePtr(model.NewDate(2026, time.May, 1))}, []string{"A", "C"}},
			{"combined", model.SearchFilter{
				Name:       strPtr("o"),
				ExpiryDate: datePtr(model.NewDate(2026, time.May, 1)),
			}, []string{"A", "C"}},
			{"nothing matches", model.SearchFilter{
				Name:            strPtr("printer"),
				ProcurementDate: datePtr(model.NewDate(1999, time.January, 1)),
				ExpiryDate:      datePtr(model.NewDate(1999, time.January, 1)),
			}, []string{}},
		}

		for _, tt := range tests {
			got, err := s.Search(ctx, tt.filter)
			if err != nil {
				t.Fatalf("%s: Search: %v", tt.name, err)
			}
			if got == nil {
				t.Errorf("%s: expected non-nil slice", tt.name)
			}
			if !reflect.DeepEqual(codes(got), tt.want) {
				t.Errorf("%s: got %v, want %v", tt.name, codes(got), tt.want)
			}
		}
	})
}

func TestSearchOrderAfterUpdateAndRecreate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, code := range []string{"A", "B", "C"} {
			s.Create(ctx, laptop(code))
		}

		// Updates keep their slot; re-created codes go to the end.
		s.Update(ctx, "A", laptop("A"))
		s.Delete(ctx, "B")
		s.Create(ctx, laptop("B"))

		got, _ := s.Search(ctx, model.SearchFilter{})
		if want := []string{"A", "C", "B"}; !reflect.DeepEqual(codes(got), want) {
			t.Errorf("got order %v, want %v", codes(got), want)
		}
	})
}

func TestEmptyStoreSearch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		got, err := s.Search(context.Background(), model.SearchFilter{})
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	item := laptop("LAP001")
	item.Description = strPtr("original")
	s.Create(ctx, item)

	*item.Description = "mutated by caller"
	got, _ := s.Get(ctx, "LAP001")
	if *got.Description != "original" {
		t.Errorf("store shares memory with caller: %q", *got.Description)
	}

	*got.Description = "mutated again"
	again, _ := s.Get(ctx, "LAP001")
	if *again.Description != "original" {
		t.Errorf("store shares memory with Get result: %q", *again.Description)
	}
}

func TestConcurrentCreateSameCode(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		var mu sync.Mutex
		successes := 0
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Create(ctx, laptop("RACE"))
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				} else if !errors.Is(err, ErrDuplicateItemCode) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if successes != 1 {
			t.Errorf("expected exactly one successful create, got %d", successes)
		}
	})
}

func TestConcurrentDistinctCreates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		const n = 20
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Create(ctx, laptop(fmt.Sprintf("ITEM%02d", i))); err != nil {
					t.Errorf("Create: %v", err)
				}
			}()
		}
		wg.Wait()

		all, _ := s.Search(ctx, model.SearchFilter{})
		if len(all) != n {
			t.Errorf("expected %d items, got %d", n, len(all))
		}
	})
}
