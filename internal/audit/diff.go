package audit

import (
	"encoding/json"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"entityaudit/internal/tracking"
)

// Diff renders metadata as a unified diff with one "attribute: value" line
// per changed attribute. It returns "" for empty metadata.
func Diff(changes tracking.Changes) string {
	if len(changes) == 0 {
		return ""
	}

	before := make([]string, 0, len(changes))
	after := make([]string, 0, len(changes))
	for _, name := range changes.Keys() {
		c := changes[name]
		before = append(before, fmt.Sprintf("%s: %s\n", name, renderValue(c.Old)))
		after = append(after, fmt.Sprintf("%s: %s\n", name, renderValue(c.New)))
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        before,
		B:        after,
		FromFile: "before",
		ToFile:   "after",
		Context:  0,
	})
	if err != nil {
		return ""
	}
	return text
}

func renderValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
