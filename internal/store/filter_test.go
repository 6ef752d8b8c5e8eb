package store

import "testing"

func TestParseFilterEmpty(t *testing.T) {
	conds, err := parseFilter("")
	if err != nil {
		t.Fatalf("parseFilter(\"\") error: %v", err)
	}
	if conds != nil {
		t.Errorf("expected no conditions, got %v", conds)
	}
}

func TestParseFilterSingleEquality(t *testing.T) {
	conds, err := parseFilter("{user_id} = 'u-42'")
	if err != nil {
		t.Fatalf("parseFilter error: %v", err)
	}
	if len(conds) != 1 || conds[0].Field != "user_id" || conds[0].Value != "u-42" {
		t.Errorf("got %v, want user_id=u-42", conds)
	}
}

func TestParseFilterAnd(t *testing.T) {
	conds, err := parseFilter("AND({user_id} = 'u1', {display_type} = 'summary')")
	if err != nil {
		t.Fatalf("parseFilter error: %v", err)
	}
	if len(conds) != 2 {
		t.Fatalf("got %d conditions, want 2", len(conds))
	}
	if conds[0].Field != "user_id" || conds[0].Value != "u1" {
		t.Errorf("first condition = %v", conds[0])
	}
	if conds[1].Field != "display_type" || conds[1].Value != "summary" {
		t.Errorf("second condition = %v", conds[1])
	}
}

func TestParseFilterQuotedComma(t *testing.T) {
	conds, err := parseFilter("AND({name} = 'a, b', {k} = 'v')")
	if err != nil {
		t.Fatalf("parseFilter error: %v", err)
	}
	if len(conds) != 2 || conds[0].Value != "a, b" {
		t.Errorf("got %v, want first value 'a, b'", conds)
	}
}

func TestParseFilterInvalid(t *testing.T) {
	for _, formula := range []string{
		"user_id = 'x'",
		"{user_id} = x",
		"{user_id}",
		"AND()",
		"{} = 'x'",
	} {
		if _, err := parseFilter(formula); err == nil {
			t.Errorf("parseFilter(%q) should fail", formula)
		}
	}
}

func TestFilterBuilders(t *testing.T) {
	eq := EqualsFilter("user_id", "u1")
	if eq != "{user_id} = 'u1'" {
		t.Errorf("EqualsFilter = %q", eq)
	}
	and := AndFilter(EqualsFilter("a", "1"), EqualsFilter("b", "2"))
	if and != "AND({a} = '1', {b} = '2')" {
		t.Errorf("AndFilter = %q", and)
	}

	// Round trip through the parser.
	conds, err := parseFilter(and)
	if err != nil || len(conds) != 2 {
		t.Fatalf("round trip failed: %v %v", conds, err)
	}
}
