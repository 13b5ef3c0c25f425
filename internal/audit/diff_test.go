package audit_test

import (
	"strings"
	"testing"

	"entityaudit/internal/audit"
	"entityaudit/internal/tracking"
)

func TestDiff(t *testing.T) {
	if got := audit.Diff(nil); got != "" {
		t.Errorf("expected empty diff, got %q", got)
	}

	got := audit.Diff(tracking.Changes{
		"name": {Old: "Rex", New: "Max"},
		"age":  {Old: nil, New: 4},
	})
	for _, want := range []string{
		"--- before",
		"+++ after",
		"-age: null",
		"+age: 4",
		`-name: "Rex"`,
		`+name: "Max"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("diff should contain %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "-age") > strings.Index(got, "-name") {
		t.Errorf("attributes should be sorted:\n%s", got)
	}
}
