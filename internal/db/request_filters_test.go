package db

import (
	"strings"
	"testing"

	"github.com/pysugar/nexus-console/internal/db/models"
)

func TestValidateRequestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter models.RequestFilter
		want   string
	}{
		{"missing target", models.RequestFilter{Name: "x", Scope: "header", Action: "remove"}, "target"},
		{"bad header action", models.RequestFilter{Name: "x", Target: "h", Scope: "header", Action: "json_path"}, "header filters"},
		{"bad scope", models.RequestFilter{Name: "x", Target: "h", Scope: "query", Action: "remove"}, "scope"},
		{"bad regex", models.RequestFilter{Name: "x", Target: "(", Scope: "body", Action: "text_replace", MatchType: "regex"}, "regex"},
		{"empty provider binding", models.RequestFilter{Name: "x", Target: "h", Scope: "header", Action: "set", BindingType: "providers"}, "provider"},
	}
	for _, tc := range tests {
		err := ValidateRequestFilter(&tc.filter)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}

	f := models.RequestFilter{Name: "x", Target: "h", Scope: "header", Action: "set", GroupTags: []string{"g"}}
	if err := ValidateRequestFilter(&f); err != nil {
		t.Fatalf("expected valid filter, got %v", err)
	}
	if f.BindingType != models.FilterBindingGlobal || f.GroupTags != nil {
		t.Fatalf("expected global binding to drop group tags, got %+v", f)
	}
}

func TestRequestFilterCRUD(t *testing.T) {
	db := newTestDB(t)

	low := &models.RequestFilter{Name: "strip ua", Scope: "header", Action: "remove", Target: "user-agent", Priority: 10, IsEnabled: true}
	high := &models.RequestFilter{Name: "set beta", Scope: "header", Action: "set", Target: "anthropic-beta", Replacement: "x", Priority: 1, IsEnabled: true,
		BindingType: models.FilterBindingProviders, ProviderIDs: []int64{3}}
	off := &models.RequestFilter{Name: "off", Scope: "body", Action: "text_replace", Target: "foo", Priority: 0}
	for _, f := range []*models.RequestFilter{low, high, off} {
		if err := CreateRequestFilter(db, f); err != nil {
			t.Fatalf("create %s: %v", f.Name, err)
		}
	}

	enabled, err := ListEnabledRequestFilters(db)
	if err != nil {
		t.Fatalf("list enabled: %v", err)
	}
	if len(enabled) != 2 || enabled[0].Name != "set beta" || len(enabled[0].ProviderIDs) != 1 {
		t.Fatalf("unexpected enabled filters %+v", enabled)
	}

	all, _ := ListRequestFilters(db)
	if len(all) != 3 || all[0].Name != "off" {
		t.Fatalf("expected priority ordering across all filters, got %+v", all)
	}

	edit := *off
	edit.IsEnabled = true
	edit.Replacement = "bar"
	updated, err := UpdateRequestFilter(db, off.ID, &edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsEnabled || updated.Replacement != "bar" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	if err := DeleteRequestFilter(db, low.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteRequestFilter(db, low.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := UpdateRequestFilter(db, 999, &edit); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing filter, got %v", err)
	}
}
