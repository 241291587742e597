package schema

import (
	"reflect"
	"testing"
)

func testSchema() *Schema {
	return New("test_data", "test", []Field{
		{Name: "revenue", Kind: KindNumeric, NullsCompareAsZero: true},
		{Name: "cogs", Kind: KindNumeric, NullsCompareAsZero: true},
		{Name: "notes", Kind: KindString},
	})
}

func TestDiff(t *testing.T) {
	t.Run("create_path_reports_all_present_fields", func(t *testing.T) {
		s := testSchema()

		changed, values := s.Diff(nil, map[string]interface{}{
			"revenue": 1000.0,
			"notes":   "first pass",
		})

		if !reflect.DeepEqual(changed, []string{"revenue", "notes"}) {
			t.Errorf("expected [revenue notes], got %v", changed)
		}
		if values["revenue"] != 1000.0 {
			t.Errorf("expected revenue 1000, got %v", values["revenue"])
		}
		if values["notes"] != "first pass" {
			t.Errorf("expected notes 'first pass', got %v", values["notes"])
		}
	})

	t.Run("identical_values_detect_nothing", func(t *testing.T) {
		s := testSchema()
		current := map[string]interface{}{"revenue": 1000.0, "cogs": 400.0, "notes": "x"}

		changed, _ := s.Diff(current, map[string]interface{}{
			"revenue": 1000.0,
			"cogs":    400.0,
			"notes":   "x",
		})

		if len(changed) != 0 {
			t.Errorf("expected no changes, got %v", changed)
		}
	})

	t.Run("absent_candidate_fields_are_ignored", func(t *testing.T) {
		s := testSchema()
		current := map[string]interface{}{"revenue": 1000.0, "cogs": 400.0}

		changed, values := s.Diff(current, map[string]interface{}{"cogs": 450.0})

		if !reflect.DeepEqual(changed, []string{"cogs"}) {
			t.Errorf("expected [cogs], got %v", changed)
		}
		if _, ok := values["revenue"]; ok {
			t.Error("revenue should not appear in new values")
		}
	})

	t.Run("numeric_string_coerces_before_comparing", func(t *testing.T) {
		s := testSchema()
		current := map[string]interface{}{"revenue": 1000.0}

		changed, _ := s.Diff(current, map[string]interface{}{"revenue": "1000"})
		if len(changed) != 0 {
			t.Errorf("expected '1000' to equal 1000, got changes %v", changed)
		}

		changed, values := s.Diff(current, map[string]interface{}{"revenue": "1250.5"})
		if !reflect.DeepEqual(changed, []string{"revenue"}) {
			t.Errorf("expected [revenue], got %v", changed)
		}
		if values["revenue"] != 1250.5 {
			t.Errorf("expected coerced 1250.5, got %v", values["revenue"])
		}
	})

	t.Run("null_compares_as_zero_for_financial_figures", func(t *testing.T) {
		s := testSchema()
		current := map[string]interface{}{"revenue": nil}

		changed, _ := s.Diff(current, map[string]interface{}{"revenue": 0.0})
		if len(changed) != 0 {
			t.Errorf("expected null to compare equal to 0, got changes %v", changed)
		}

		changed, _ = s.Diff(current, map[string]interface{}{"revenue": 5.0})
		if !reflect.DeepEqual(changed, []string{"revenue"}) {
			t.Errorf("expected [revenue], got %v", changed)
		}
	})

	t.Run("null_zero_equivalence_can_be_disabled", func(t *testing.T) {
		s := New("test_data", "test", []Field{
			{Name: "count", Kind: KindNumeric, NullsCompareAsZero: false},
		})
		current := map[string]interface{}{"count": nil}

		changed, _ := s.Diff(current, map[string]interface{}{"count": 0.0})
		if !reflect.DeepEqual(changed, []string{"count"}) {
			t.Errorf("expected null-to-0 to be a change, got %v", changed)
		}
	})

	t.Run("string_null_and_empty_are_equivalent", func(t *testing.T) {
		s := testSchema()

		changed, _ := s.Diff(map[string]interface{}{"notes": nil}, map[string]interface{}{"notes": ""})
		if len(changed) != 0 {
			t.Errorf("expected null and empty string to match, got %v", changed)
		}

		changed, _ = s.Diff(map[string]interface{}{"notes": ""}, map[string]interface{}{"notes": nil})
		if len(changed) != 0 {
			t.Errorf("expected empty string and null to match, got %v", changed)
		}

		changed, _ = s.Diff(map[string]interface{}{"notes": "kept"}, map[string]interface{}{"notes": ""})
		if !reflect.DeepEqual(changed, []string{"notes"}) {
			t.Errorf("expected clearing a string to be a change, got %v", changed)
		}
	})

	t.Run("undeclared_fields_are_dropped", func(t *testing.T) {
		s := testSchema()

		changed, values := s.Diff(nil, map[string]interface{}{
			"revenue":  100.0,
			"intruder": "nope",
		})

		if !reflect.DeepEqual(changed, []string{"revenue"}) {
			t.Errorf("expected [revenue], got %v", changed)
		}
		if _, ok := values["intruder"]; ok {
			t.Error("undeclared field must not survive the diff")
		}
	})

	t.Run("changed_fields_follow_declaration_order", func(t *testing.T) {
		s := testSchema()
		current := map[string]interface{}{"revenue": 1.0, "cogs": 2.0, "notes": "a"}

		changed, _ := s.Diff(current, map[string]interface{}{
			"notes":   "b",
			"revenue": 9.0,
			"cogs":    8.0,
		})

		if !reflect.DeepEqual(changed, []string{"revenue", "cogs", "notes"}) {
			t.Errorf("expected declaration order, got %v", changed)
		}
	})

	t.Run("whitespace_only_string_is_null", func(t *testing.T) {
		s := testSchema()
		current := map[string]interface{}{"revenue": nil}

		changed, _ := s.Diff(current, map[string]interface{}{"revenue": "   "})
		if len(changed) != 0 {
			t.Errorf("expected whitespace candidate to match stored null, got %v", changed)
		}
	})
}

func TestFieldLookup(t *testing.T) {
	s := testSchema()

	if _, ok := s.Field("revenue"); !ok {
		t.Error("expected revenue to be declared")
	}
	if _, ok := s.Field("missing"); ok {
		t.Error("expected missing to be undeclared")
	}

	names := s.FieldNames()
	if !reflect.DeepEqual(names, []string{"revenue", "cogs", "notes"}) {
		t.Errorf("unexpected field names: %v", names)
	}
}
