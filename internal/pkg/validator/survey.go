package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dominiq/maturity-backend/internal/entity"
)

const maxSessionIDLength = 128

// ValidateChatRequest validates a chat turn. axis_id scopes the catalog and is required.
// An empty session_id is allowed and starts a new session.
func (v *Validator) ValidateChatRequest(req *entity.ChatRequest) error {
	if strings.TrimSpace(req.InputText) == "" {
		return fmt.Errorf("%w: input_text", entity.ErrMissingField)
	}

	if v.cfg.MaxInputLength > 0 && utf8.RuneCountInString(req.InputText) > v.cfg.MaxInputLength {
		return fmt.Errorf("%w: input_text is longer than %d characters", entity.ErrInvalidParameter, v.cfg.MaxInputLength)
	}

	if err := ValidateSessionID(req.SessionID, true); err != nil {
		return err
	}

	if req.AxisID == nil {
		return fmt.Errorf("%w: axis_id", entity.ErrMissingField)
	}
	if *req.AxisID <= 0 {
		return fmt.Errorf("%w: axis_id must be positive", entity.ErrInvalidParameter)
	}

	if req.IndustryID != nil && *req.IndustryID <= 0 {
		return fmt.Errorf("%w: industry_id must be positive", entity.ErrInvalidParameter)
	}

	if req.QuestionType != nil {
		if err := entity.QuestionType(*req.QuestionType).Validate(); err != nil {
			return fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
		}
	}

	return nil
}

// ValidateSessionID checks that id is usable as a storage key
func ValidateSessionID(id string, allowEmpty bool) error {
	if id == "" {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: session_id", entity.ErrMissingField)
	}

	if len(id) > maxSessionIDLength {
		return fmt.Errorf("%w: session_id is longer than %d bytes", entity.ErrInvalidFormat, maxSessionIDLength)
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: session_id may only contain letters, digits, '-', '_' and '.'", entity.ErrInvalidFormat)
		}
	}

	return nil
}
