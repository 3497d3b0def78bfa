package answer

import (
	"strings"
	"testing"
)

func TestValidateAcceptsPlainSelect(t *testing.T) {
	statements := []string{
		"SELECT * FROM orders__sheet_1",
		"  select count(*) from t;  ",
		"SELECT a, b FROM t WHERE a > 3 LIMIT 10",
	}
	for _, stmt := range statements {
		if err := Validate(stmt); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", stmt, err)
		}
	}
}

func TestValidateRejectsUnsafeStatements(t *testing.T) {
	statements := []string{
		"",
		"DELETE FROM users;",
		"DROP TABLE orders",
		"WITH x AS (SELECT 1) SELECT * FROM x", // must start with select
		"SELECT * FROM t; DROP TABLE t",
		"select 1; truncate t",
		"UPDATE t SET a = 1",
		"I cannot answer that question.",
	}
	for _, stmt := range statements {
		if err := Validate(stmt); err == nil {
			t.Errorf("Validate(%q) = nil, want error", stmt)
		}
	}
}

func TestApplyRowCapInjectsLimit(t *testing.T) {
	got := ApplyRowCap("SELECT * FROM t;", 1000)
	if got != "SELECT * FROM t LIMIT 1000;" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyRowCapLeavesExistingLimit(t *testing.T) {
	stmt := "SELECT * FROM t LIMIT 5"
	if got := ApplyRowCap(stmt, 1000); got != stmt {
		t.Fatalf("got %q", got)
	}
}

func TestApplyRowCapFallbackQuery(t *testing.T) {
	got := ApplyRowCap(FallbackQuery, 1000)
	if !strings.HasPrefix(got, "SELECT 1") || !strings.Contains(got, "LIMIT 1000") {
		t.Fatalf("got %q", got)
	}
}
