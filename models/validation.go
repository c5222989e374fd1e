package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validatePortAndProtocol(port int, protocol Protocol) error {
	if err := validate.Var(port, "min=1,max=65535"); err != nil {
		return fmt.Errorf("%w: port %d out of range: %v", ErrInvalidImposter, port, err)
	}
	if err := validate.Var(string(protocol), "required,oneof=http https tcp smtp"); err != nil {
		return fmt.Errorf("%w: unsupported protocol %q: %v", ErrInvalidImposter, protocol, err)
	}
	return nil
}
