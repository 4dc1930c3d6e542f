package services

import (
	"context"
	"errors"
	"net/mail"
)

// LocalValidator accepts any syntactically valid address without calling
// out to a reputation service.
type LocalValidator struct{}

func NewLocalValidator() *LocalValidator {
	return &LocalValidator{}
}

func (v *LocalValidator) Validate(_ context.Context, email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email format")
	}
	return nil
}
