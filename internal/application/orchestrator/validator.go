package orchestrator

import (
	"fmt"

	"github.com/aescanero/dropship/internal/application/workers"
)

// Validator validates the set of workflows handed to the manager
type Validator struct{}

// NewValidator creates a new workflow validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that specs is non-empty, every spec is schedulable and
// names are unique
func (v *Validator) Validate(specs []workers.Spec) error {
	if len(specs) == 0 {
		return fmt.Errorf("at least one workflow is required")
	}

	names := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("invalid workflow #%d: %w", i, err)
		}

		// Check for duplicate names
		if names[spec.Name] {
			return fmt.Errorf("duplicate workflow name: %s", spec.Name)
		}
		names[spec.Name] = true
	}

	return nil
}
