package config

import "github.com/go-playground/validator/v10"

// Service validates a Settings value and can be swapped for a stricter
// implementation in tests.
type Service struct {
	validate *validator.Validate
}

// NewService builds a Service backed by go-playground/validator.
func NewService() *Service {
	return &Service{validate: validator.New()}
}

// Validate checks cfg against its `validate` struct tags.
func (s *Service) Validate(cfg *Settings) error {
	return s.validate.Struct(cfg)
}
