package services

import (
	"fmt"
	"strings"

	"github.com/you/retaildash/domain"
)

// field pairs a form field name with its submitted value
type field struct {
	name  string
	value string
}

// requireFields reports the first blank field as domain.ErrInvalidInput
func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, f.name)
		}
	}
	return nil
}
