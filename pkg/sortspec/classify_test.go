package sortspec

import "testing"

func TestClassifyLocalField(t *testing.T) {
	f := Classify("priority")
	if f.Kind != KindLocal {
		t.Fatalf("expected local kind, got %d", f.Kind)
	}
	if f.Column != "priority" || f.Relation != "" {
		t.Fatalf("unexpected classification: %+v", f)
	}
}

func TestClassifyRelatedField(t *testing.T) {
	f := Classify("project__name")
	if f.Kind != KindRelated {
		t.Fatalf("expected related kind, got %d", f.Kind)
	}
	if f.Relation != "project" || f.Column != "name" {
		t.Fatalf("unexpected classification: %+v", f)
	}
}

func TestClassifySplitsOnFirstSeparator(t *testing.T) {
	f := Classify("audit__created__at")
	if f.Relation != "audit" || f.Column != "created__at" {
		t.Fatalf("unexpected classification: %+v", f)
	}
}

func TestIsCustomSpec(t *testing.T) {
	cases := map[string]bool{
		"c_urgency":         true,
		"  c_urgency:desc":  true,
		"c_":                true,
		"name":              false,
		"ac_urgency":        false,
		"name,c_urgency":    false,
		"project__c_name":   false,
		"c_urgency,created": true,
	}
	for input, want := range cases {
		if got := IsCustomSpec(input); got != want {
			t.Errorf("IsCustomSpec(%q): expected %v, got %v", input, want, got)
		}
	}
}
