package types

import "testing"

func TestParseRuleID(t *testing.T) {
	id := NewRuleID()
	parsed, err := ParseRuleID(string(id))
	if err != nil {
		t.Fatalf("ParseRuleID(%q) unexpected error: %v", id, err)
	}
	if parsed != id {
		t.Errorf("parsed = %s, want %s", parsed, id)
	}

	for _, bad := range []string{"", "not-a-uuid", "42", "0191-short"} {
		if _, err := ParseRuleID(bad); err == nil {
			t.Errorf("ParseRuleID(%q) accepted a malformed id", bad)
		}
	}
}

func TestParseLeadID(t *testing.T) {
	id := NewLeadID()
	parsed, err := ParseLeadID(string(id))
	if err != nil {
		t.Fatalf("ParseLeadID(%q) unexpected error: %v", id, err)
	}
	if parsed != id {
		t.Errorf("parsed = %s, want %s", parsed, id)
	}

	if _, err := ParseLeadID("lead-1"); err == nil {
		t.Error("ParseLeadID accepted a non-UUID id")
	}
}
