package services

import (
	"fmt"
	"huddle/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateCommand checks the struct tags of a domain command.
func validateCommand(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidCommand, err)
	}
	return nil
}
