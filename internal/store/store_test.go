package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/cseguard/internal/core"
)

func rec(domain string) core.DomainRecord {
	return core.DomainRecord{Domain: domain, OrganizationName: "Org", Sector: "BFSI"}
}

func names(domains []core.CSEDomain) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.Domain)
	}
	return out
}

// runStoreTests exercises the behavior every Store must share. newStore must
// return an empty store.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("add then list", func(t *testing.T) {
		s := newStore(t)

		d, err := s.Add(ctx, core.DomainRecord{Domain: "sbi.co.in", OrganizationName: "State Bank of India", Sector: "BFSI"})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if d.ID == 0 || !d.IsActive || d.AddedAt.IsZero() {
			t.Errorf("Add returned %+v, want ID, active and AddedAt set", d)
		}

		got, err := s.List(ctx, ListParams{ActiveOnly: true})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 || got[0].OrganizationName != "State Bank of India" {
			t.Errorf("List = %+v", got)
		}
	})

	t.Run("add rejects active duplicate", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Add(ctx, rec("a.com")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if _, err := s.Add(ctx, rec("a.com")); !errors.Is(err, ErrAlreadyMonitored) {
			t.Errorf("second Add err = %v, want ErrAlreadyMonitored", err)
		}
	})

	t.Run("add rejects removed domain", func(t *testing.T) {
		s := newStore(t)
		d, err := s.Add(ctx, rec("a.com"))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Deactivate(ctx, d.ID); err != nil {
			t.Fatalf("Deactivate: %v", err)
		}
		if _, err := s.Add(ctx, rec("a.com")); !errors.Is(err, ErrPreviouslyRemoved) {
			t.Errorf("Add after Deactivate err = %v, want ErrPreviouslyRemoved", err)
		}
	})

	t.Run("bulk add skips existing and in-batch repeats", func(t *testing.T) {
		s := newStore(t)
		old, err := s.Add(ctx, rec("old.com"))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		removed, err := s.Add(ctx, rec("removed.com"))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Deactivate(ctx, removed.ID); err != nil {
			t.Fatalf("Deactivate: %v", err)
		}
		_ = old

		added, skipped, err := s.BulkAdd(ctx, []core.DomainRecord{
			rec("new1.com"), rec("old.com"), rec("new2.com"), rec("new1.com"), rec("removed.com"),
		})
		if err != nil {
			t.Fatalf("BulkAdd: %v", err)
		}

		if want := []string{"new1.com", "new2.com"}; !reflect.DeepEqual(names(added), want) {
			t.Errorf("added = %q, want %q", names(added), want)
		}
		if want := []string{"old.com", "new1.com", "removed.com"}; !reflect.DeepEqual(skipped, want) {
			t.Errorf("skipped = %q, want %q", skipped, want)
		}
		for _, d := range added {
			if d.ID == 0 || !d.IsActive {
				t.Errorf("added domain %+v missing ID or not active", d)
			}
		}
	})

	t.Run("names compare case-insensitively", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Add(ctx, rec("sbi.co.in")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if _, err := s.Add(ctx, rec("SBI.co.in")); !errors.Is(err, ErrAlreadyMonitored) {
			t.Errorf("Add(SBI.co.in) err = %v, want ErrAlreadyMonitored", err)
		}

		added, skipped, err := s.BulkAdd(ctx, []core.DomainRecord{
			rec("SBI.CO.IN"), rec("onlinesbi.sbi"), rec("OnlineSBI.sbi"),
		})
		if err != nil {
			t.Fatalf("BulkAdd: %v", err)
		}
		if want := []string{"onlinesbi.sbi"}; !reflect.DeepEqual(names(added), want) {
			t.Errorf("added = %q, want %q", names(added), want)
		}
		if want := []string{"SBI.CO.IN", "OnlineSBI.sbi"}; !reflect.DeepEqual(skipped, want) {
			t.Errorf("skipped = %q, want %q", skipped, want)
		}

		active, err := s.ActiveDomains(ctx)
		if err != nil {
			t.Fatalf("ActiveDomains: %v", err)
		}
		if len(active) != 2 {
			t.Errorf("ActiveDomains = %q, want 2 names", active)
		}
	})

	t.Run("bulk add empty batch", func(t *testing.T) {
		s := newStore(t)
		added, skipped, err := s.BulkAdd(ctx, nil)
		if err != nil {
			t.Fatalf("BulkAdd: %v", err)
		}
		if len(added) != 0 || len(skipped) != 0 {
			t.Errorf("BulkAdd(nil) = %v, %v", added, skipped)
		}
	})

	t.Run("list pages newest first", func(t *testing.T) {
		s := newStore(t)
		for _, n := range []string{"a.com", "b.com", "c.com", "d.com"} {
			if _, err := s.Add(ctx, rec(n)); err != nil {
				t.Fatalf("Add(%s): %v", n, err)
			}
		}

		page1, err := s.List(ctx, ListParams{Limit: 2, ActiveOnly: true})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		page2, err := s.List(ctx, ListParams{Offset: 2, Limit: 2, ActiveOnly: true})
		if err != nil {
			t.Fatalf("List: %v", err)
		}

		if want := []string{"d.com", "c.com"}; !reflect.DeepEqual(names(page1), want) {
			t.Errorf("page1 = %q, want %q", names(page1), want)
		}
		if want := []string{"b.com", "a.com"}; !reflect.DeepEqual(names(page2), want) {
			t.Errorf("page2 = %q, want %q", names(page2), want)
		}

		past, err := s.List(ctx, ListParams{Offset: 10, ActiveOnly: true})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(past) != 0 {
			t.Errorf("List past the end = %q, want empty", names(past))
		}
	})

	t.Run("list active only hides removed", func(t *testing.T) {
		s := newStore(t)
		a, _ := s.Add(ctx, rec("a.com"))
		if _, err := s.Add(ctx, rec("b.com")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Deactivate(ctx, a.ID); err != nil {
			t.Fatalf("Deactivate: %v", err)
		}

		active, _ := s.List(ctx, ListParams{ActiveOnly: true})
		all, _ := s.List(ctx, ListParams{})
		if want := []string{"b.com"}; !reflect.DeepEqual(names(active), want) {
			t.Errorf("active = %q, want %q", names(active), want)
		}
		if len(all) != 2 {
			t.Errorf("all = %q, want 2 domains", names(all))
		}

		activeNames, err := s.ActiveDomains(ctx)
		if err != nil {
			t.Fatalf("ActiveDomains: %v", err)
		}
		if want := []string{"b.com"}; !reflect.DeepEqual(activeNames, want) {
			t.Errorf("ActiveDomains = %q, want %q", activeNames, want)
		}
	})

	t.Run("deactivate unknown id", func(t *testing.T) {
		s := newStore(t)
		if err := s.Deactivate(ctx, 9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("Deactivate(9999) err = %v, want ErrNotFound", err)
		}
	})
}

func TestListParams_Normalized(t *testing.T) {
	tests := []struct {
		in   ListParams
		want ListParams
	}{
		{ListParams{}, ListParams{Limit: DefaultLimit}},
		{ListParams{Offset: -3, Limit: -1}, ListParams{Limit: DefaultLimit}},
		{ListParams{Offset: 5, Limit: 10, ActiveOnly: true}, ListParams{Offset: 5, Limit: 10, ActiveOnly: true}},
	}
	for _, tt := range tests {
		if got := tt.in.normalized(); got != tt.want {
			t.Errorf("%+v.normalized() = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
