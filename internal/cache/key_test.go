package cache

import "testing"

func TestMakeKeyDeterministic(t *testing.T) {
	a := MakeKey(CategoryAgentResponse, "What's on today?", "5")
	b := MakeKey(CategoryAgentResponse, "What's on today?", "5")
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}
}

func TestMakeKeySanitizes(t *testing.T) {
	key := MakeKey(CategoryEvents, "2024-07-12", "Café & Brunch!")
	want := "events:2024-07-12:caf____brunch_"
	if key != want {
		t.Fatalf("expected %q, got %q", want, key)
	}
}

func TestMakeKeyLowercases(t *testing.T) {
	if got := MakeKey(CategoryEmails, "ABC_123"); got != "emails:abc_123" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestMakeKeySkipsEmptyParts(t *testing.T) {
	if got := MakeKey(CategorySummary, "", "3", "", "0"); got != "summary:3:0" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		parsed, err := ParseCategory(string(c))
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", c, err)
		}
		if parsed != c {
			t.Fatalf("expected %q, got %q", c, parsed)
		}
	}
	if _, err := ParseCategory("bogus"); err == nil {
		t.Fatal("expected error for unknown category")
	}
	if _, err := ParseCategory("all"); err == nil {
		t.Fatal("\"all\" is a route convenience, not a category")
	}
}

func TestCategoriesClosedSet(t *testing.T) {
	if len(Categories()) != 7 {
		t.Fatalf("expected 7 categories, got %d", len(Categories()))
	}
}
