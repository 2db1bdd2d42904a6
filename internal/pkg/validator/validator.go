package validator

import (
	"github.com/dominiq/maturity-backend/internal/config"
)

// Validator checks inbound requests before they reach the use cases
type Validator struct {
	cfg config.SurveyConfig
}

func NewValidator(cfg config.SurveyConfig) *Validator {
	return &Validator{cfg: cfg}
}
