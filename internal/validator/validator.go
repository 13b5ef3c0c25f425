// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// Entity type names, optionally namespaced: "Dog", "Kennel::Dog", "billing.Invoice".
	subjectTypeRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*((::|\.)[A-Za-z][A-Za-z0-9_]*)*$`)
	auditActionRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("subject_type", validateSubjectType)
	_ = v.RegisterValidation("audit_action", validateAuditAction)
}

func validateSubjectType(fl validator.FieldLevel) bool {
	return subjectTypeRegex.MatchString(fl.Field().String())
}

func validateAuditAction(fl validator.FieldLevel) bool {
	return auditActionRegex.MatchString(fl.Field().String())
}
