package core

import "testing"

func TestCategoriesClosedEnum(t *testing.T) {
	all := Categories()
	if len(all) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(all))
	}
	seen := map[Category]bool{}
	for _, c := range all {
		if !c.Valid() {
			t.Fatalf("category %q should be valid", c)
		}
		if seen[c] {
			t.Fatalf("duplicate category %q", c)
		}
		seen[c] = true
		if c.Color() == "" || c.Icon() == "" {
			t.Fatalf("category %q missing display metadata", c)
		}
	}
	if Category("Groceries").Valid() {
		t.Fatalf("unknown category must not validate")
	}
}

func TestCategoryFallbackMetadata(t *testing.T) {
	unknown := Category("nope")
	if unknown.Color() != CategoryOther.Color() {
		t.Fatalf("unknown category should use the Other color")
	}
	if unknown.Icon() != CategoryOther.Icon() {
		t.Fatalf("unknown category should use the Other icon")
	}
}
