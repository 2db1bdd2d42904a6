package survey

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dominiq/maturity-backend/internal/entity"
)

func sampleQuestions() []entity.Question {
	score := 2.5
	category := "delivery"
	return []entity.Question{
		{ID: 1, Text: "Do you deploy daily?", Options: []entity.QuestionOption{{ID: 10, Text: "Low"}, {ID: 11, Text: "High", Score: &score}}, Category: &category},
		{ID: 2, Text: "Do you track incidents?", Options: []entity.QuestionOption{{ID: 20, Text: "No"}}},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		state *entity.SurveyState
	}{
		{
			name:  "fresh state",
			state: entity.NewSurveyState("s1", sampleQuestions()),
		},
		{
			name:  "no questions",
			state: &entity.SurveyState{UserID: "s2", Messages: []entity.ConversationMessage{}, Questions: []entity.Question{}, Responses: map[string]string{}, Status: entity.SessionStatusCompleted},
		},
		{
			name: "progressed state",
			state: &entity.SurveyState{
				UserID: "s3",
				Messages: []entity.ConversationMessage{
					{Role: entity.RoleUser, Content: "hi"},
					{Role: entity.RoleAssistant, Content: "Question 1: \"quoted\" ünïcode"},
				},
				Questions:          sampleQuestions(),
				CurrentQuestionIdx: 1,
				Responses:          map[string]string{"1": "Low", "2": ""},
				Status:             entity.SessionStatusInProgress,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeState(tt.state)
			if err != nil {
				t.Fatalf("EncodeState: %v", err)
			}

			got, err := DecodeState(data)
			if err != nil {
				t.Fatalf("DecodeState: %v", err)
			}

			if !reflect.DeepEqual(got, tt.state) {
				t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, tt.state)
			}

			again, err := EncodeState(got)
			if err != nil {
				t.Fatalf("EncodeState again: %v", err)
			}
			if string(again) != string(data) {
				t.Errorf("encoding is not stable:\n%s\n%s", data, again)
			}
		})
	}
}

func TestCodec_NormalizesNilCollections(t *testing.T) {
	state := &entity.SurveyState{
		UserID:    "s1",
		Questions: []entity.Question{{ID: 1, Text: "q"}},
		Status:    entity.SessionStatusInProgress,
	}

	data, err := EncodeState(state)
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	if state.Questions[0].Options != nil {
		t.Errorf("EncodeState modified its input")
	}

	got, err := DecodeState(data)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if got.Messages == nil || got.Responses == nil || got.Questions[0].Options == nil {
		t.Errorf("expected empty, non-nil collections: %+v", got)
	}
}

func TestCodec_DecodeLegacyBareState(t *testing.T) {
	raw := []byte(`{"user_id":"legacy","messages":[{"role":"user","content":"hi"}],"questions":[{"id":1,"text":"q","options":[{"id":3,"text":"Low","score":0}],"category":null,"subset":null}],"current_question_idx":0,"responses":{"1":"Low"}}`)

	got, err := DecodeState(raw)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if got.UserID != "legacy" || got.Status != entity.SessionStatusInProgress || got.Responses["1"] != "Low" {
		t.Errorf("unexpected state: %+v", got)
	}
}

func TestCodec_DecodeCorrupt(t *testing.T) {
	valid, err := EncodeState(entity.NewSurveyState("s1", sampleQuestions()))
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"whitespace", []byte("  \n")},
		{"not json", []byte("not json")},
		{"truncated", valid[:len(valid)/2]},
		{"trailing garbage", append(append([]byte{}, valid...), []byte("xyz")...)},
		{"json null", []byte("null")},
		{"json array", []byte("[]")},
		{"empty object", []byte("{}")},
		{"unknown version", []byte(`{"version":99,"state":{"user_id":"s","status":"IN_PROGRESS"}}`)},
		{"missing state", []byte(`{"version":1}`)},
		{"null state", []byte(`{"version":1,"state":null}`)},
		{"index out of range", []byte(`{"version":1,"state":{"user_id":"s","questions":[{"id":1,"text":"q","options":[]}],"current_question_idx":2,"status":"IN_PROGRESS"}}`)},
		{"negative index", []byte(`{"version":1,"state":{"user_id":"s","questions":[],"current_question_idx":-1,"status":"IN_PROGRESS"}}`)},
		{"unknown status", []byte(`{"version":1,"state":{"user_id":"s","status":"PAUSED"}}`)},
		{"unknown role", []byte(`{"version":1,"state":{"user_id":"s","messages":[{"role":"tool","content":"x"}],"status":"IN_PROGRESS"}}`)},
		{"wrong types", []byte(`{"version":1,"state":{"user_id":"s","current_question_idx":"zero","status":"IN_PROGRESS"}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeState(tt.data)
			if !errors.Is(err, entity.ErrCorruptState) {
				t.Fatalf("expected ErrCorruptState, got %v", err)
			}
		})
	}
}

func TestDecodeState_IndexPastLastQuestion(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantIdx int
	}{
		{"one past last", `{"version":1,"state":{"user_id":"s","questions":[{"id":1,"text":"q","options":[]},{"id":2,"text":"r","options":[]}],"current_question_idx":2,"status":"COMPLETED"}}`, 1},
		{"no questions", `{"version":1,"state":{"user_id":"s","questions":[],"current_question_idx":0,"status":"IN_PROGRESS"}}`, 0},
		{"last question", `{"version":1,"state":{"user_id":"s","questions":[{"id":1,"text":"q","options":[]}],"current_question_idx":0,"status":"IN_PROGRESS"}}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeState([]byte(tt.data))
			if err != nil {
				t.Fatalf("DecodeState: %v", err)
			}
			if got.CurrentQuestionIdx != tt.wantIdx {
				t.Fatalf("expected index %d, got %d", tt.wantIdx, got.CurrentQuestionIdx)
			}
		})
	}
}

func TestEncodeState_Nil(t *testing.T) {
	if _, err := EncodeState(nil); err == nil {
		t.Fatal("expected error for nil state")
	}
}
