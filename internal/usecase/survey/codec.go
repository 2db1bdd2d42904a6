package survey

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dominiq/maturity-backend/internal/entity"
)

// stateFormatVersion is bumped whenever the stored layout of SurveyState changes
const stateFormatVersion = 1

type stateEnvelope struct {
	Version int                `json:"version"`
	State   entity.SurveyState `json:"state"`
}

type stateHeader struct {
	Version *int            `json:"version"`
	State   json.RawMessage `json:"state"`
}

// EncodeState serializes state into the versioned blob format.
// DecodeState(EncodeState(s)) equals s up to nil versus empty collections:
// nil Messages, Responses and question Options come back as empty values.
func EncodeState(state *entity.SurveyState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("encode survey state: nil state")
	}

	data, err := json.Marshal(stateEnvelope{
		Version: stateFormatVersion,
		State:   normalizeState(*state),
	})
	if err != nil {
		return nil, fmt.Errorf("encode survey state: %w", err)
	}

	return data, nil
}

// DecodeState parses a blob produced by EncodeState. Blobs written before the envelope
// existed (a bare state object) are accepted as well. Anything unreadable or violating
// the state invariants is ErrCorruptState.
func DecodeState(data []byte) (*entity.SurveyState, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty blob", entity.ErrCorruptState)
	}

	var header stateHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrCorruptState, err)
	}

	var (
		state entity.SurveyState
		raw   = data
	)
	if header.Version != nil {
		if *header.Version != stateFormatVersion {
			return nil, fmt.Errorf("%w: unsupported format version %d", entity.ErrCorruptState, *header.Version)
		}
		if len(header.State) == 0 {
			return nil, fmt.Errorf("%w: missing state", entity.ErrCorruptState)
		}
		raw = header.State
	}

	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrCorruptState, err)
	}

	if header.Version == nil {
		if state.UserID == "" {
			return nil, fmt.Errorf("%w: not a survey state", entity.ErrCorruptState)
		}
		// Bare states predate the status field
		if state.Status == "" {
			state.Status = entity.SessionStatusInProgress
		}
	}

	state = normalizeState(state)
	if err := validateState(&state); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrCorruptState, err)
	}
	// An index one past the last question marks a finished walk; the engine
	// expects it to point at a real question.
	if state.CurrentQuestionIdx > state.LastQuestionIdx() {
		state.CurrentQuestionIdx = state.LastQuestionIdx()
	}

	return &state, nil
}

// normalizeState replaces nil collections with empty ones so a state survives a round trip unchanged
func normalizeState(s entity.SurveyState) entity.SurveyState {
	if s.Messages == nil {
		s.Messages = []entity.ConversationMessage{}
	}
	if s.Responses == nil {
		s.Responses = map[string]string{}
	}
	questions := make([]entity.Question, len(s.Questions))
	copy(questions, s.Questions)
	for i := range questions {
		if questions[i].Options == nil {
			questions[i].Options = []entity.QuestionOption{}
		}
	}
	s.Questions = questions
	return s
}

func validateState(s *entity.SurveyState) error {
	if s.CurrentQuestionIdx < 0 || s.CurrentQuestionIdx > len(s.Questions) {
		return fmt.Errorf("current_question_idx %d out of range for %d questions", s.CurrentQuestionIdx, len(s.Questions))
	}

	switch s.Status {
	case entity.SessionStatusInProgress, entity.SessionStatusCompleted:
	default:
		return fmt.Errorf("unexpected status %q", s.Status)
	}

	for i, m := range s.Messages {
		if err := m.Role.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}

	return nil
}
