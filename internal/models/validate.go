package models

import "github.com/go-playground/validator/v10"

// Validate checks single values outside request binding. Stores use it so
// the same rules hold when they are called without an HTTP request.
var Validate = validator.New()

// Check adds message under field when value does not satisfy tag.
func (e *ValidationError) Check(field string, value any, tag, message string) {
	if err := Validate.Var(value, tag); err != nil {
		if e.Fields == nil {
			e.Fields = map[string]string{}
		}
		e.Fields[field] = message
	}
}
