package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidators(t *testing.T) {
	v := validator.New()
	RegisterOn(v)

	tests := []struct {
		tag   string
		value string
		valid bool
	}{
		{"subject_type", "Dog", true},
		{"subject_type", "Kennel::Dog", true},
		{"subject_type", "billing.Invoice", true},
		{"subject_type", "9Lives", false},
		{"subject_type", "Dog;DROP", false},
		{"subject_type", "", false},
		{"audit_action", "update", true},
		{"audit_action", "mark_paid", true},
		{"audit_action", "Update", false},
		{"audit_action", "mark-paid", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.value, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.valid && err != nil {
				t.Errorf("expected %q to be valid: %v", tt.value, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("expected %q to be invalid", tt.value)
			}
		})
	}
}
