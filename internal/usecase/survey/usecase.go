package survey

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/dominiq/maturity-backend/internal/pkg/logger"
	"github.com/dominiq/maturity-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Options holds the fixed texts and key layout of the survey engine
type Options struct {
	// KeySuffix is appended to the session id to form the blob key, e.g. ".pkl"
	KeySuffix         string
	ApologyMessage    string
	CompletionMessage string
}

// SurveyUsecase runs survey conversations. It keeps no state between calls:
// everything a session needs is in its blob.
type SurveyUsecase struct {
	catalog  *CatalogLoader
	blobs    repository.SessionBlobRepository
	answers  repository.SurveyAnswerRepository
	llm      LLMConnector
	protocol SurveyProtocol
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
}

// NewUsecase creates the survey engine. answers may be nil to disable answer mirroring.
func NewUsecase(
	catalogRepo repository.CatalogRepository,
	blobRepo repository.SessionBlobRepository,
	answerRepo repository.SurveyAnswerRepository,
	llmConnector LLMConnector,
	protocol SurveyProtocol,
	opts Options,
	logger *zap.Logger,
) *SurveyUsecase {
	return &SurveyUsecase{
		catalog:  NewCatalogLoader(catalogRepo),
		blobs:    blobRepo,
		answers:  answerRepo,
		llm:      llmConnector,
		protocol: protocol,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// HandleTurn processes one user message of a survey session.
// Assistant failures are answered with an apology and leave the stored state untouched.
// Only catalog and state read failures, invalid filters and cancellation are returned as errors.
func (uc *SurveyUsecase) HandleTurn(ctx context.Context, req entity.TurnRequest) (*entity.TurnResult, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	ctx = logger.AddFields(logger.WithAction(ctx, "survey_turn"), zap.String("session_id", sessionID))
	key := uc.blobKey(sessionID)

	state, err := uc.loadState(ctx, key)
	if err != nil {
		return nil, err
	}

	initializing := state == nil
	if initializing {
		state, err = uc.initializeState(ctx, sessionID, req.Filter)
		if err != nil {
			return nil, err
		}

		if len(state.Questions) == 0 {
			uc.persist(ctx, key, state)
		}
	}

	// Nothing to ask: the session was completed at initialization and stays that way
	if len(state.Questions) == 0 {
		ctxzap.Info(ctx, "survey has no questions, reporting completion")
		return uc.result(sessionID, uc.opts.CompletionMessage, state.Status, false), nil
	}

	working := make([]entity.ConversationMessage, 0, len(state.Messages)+2)
	working = append(working, state.Messages...)
	working = append(working, entity.ConversationMessage{Role: entity.RoleUser, Content: req.InputText})

	reply, err := uc.ask(ctx, sessionID, state.Questions, working)
	if err != nil {
		if isAssistantFailure(err) {
			ctxzap.Warn(ctx, "discarding turn after assistant failure", zap.Error(err))
			return uc.result(sessionID, uc.opts.ApologyMessage, state.Status, true), nil
		}
		return nil, err
	}

	next, answer, err := uc.reconcile(ctx, state, working, reply, initializing)
	if err != nil {
		return nil, err
	}

	uc.persist(ctx, key, next)
	if answer != nil {
		uc.recordAnswer(ctx, answer)
	}

	ctxzap.Info(ctx, "survey turn completed",
		zap.String("next_action", string(reply.NextAction)),
		zap.Int("current_question_idx", next.CurrentQuestionIdx),
		zap.String("status", string(next.Status)),
	)

	return uc.result(sessionID, reply.AssistantMessage, next.Status, false), nil
}

// GetProgress reports how far a session got. Absent and unreadable sessions are ErrSessionNotFound.
func (uc *SurveyUsecase) GetProgress(ctx context.Context, sessionID string) (*entity.SurveyProgress, error) {
	state, err := uc.requireState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answered := 0
	for _, q := range state.Questions {
		if _, ok := state.Responses[entity.ResponseKey(q.ID)]; ok {
			answered++
		}
	}

	return &entity.SurveyProgress{
		SessionID:          sessionID,
		Status:             state.Status,
		CurrentQuestionIdx: state.CurrentQuestionIdx,
		TotalQuestions:     len(state.Questions),
		AnsweredQuestions:  answered,
		Responses:          state.Responses,
		MessageCount:       len(state.Messages),
	}, nil
}

// GetResult pairs every question of the session with its recorded answer, in catalog order
func (uc *SurveyUsecase) GetResult(ctx context.Context, sessionID string) (*entity.SurveyResult, error) {
	state, err := uc.requireState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]entity.SurveyResultItem, 0, len(state.Questions))
	for _, q := range state.Questions {
		item := entity.SurveyResultItem{
			QuestionID: q.ID,
			Question:   q.Text,
		}
		if answer, ok := state.Responses[entity.ResponseKey(q.ID)]; ok {
			item.Answer = &answer
		}
		items = append(items, item)
	}

	return &entity.SurveyResult{
		SessionID: sessionID,
		Status:    state.Status,
		Items:     items,
	}, nil
}

// ListQuestions exposes the catalog a new session with this filter would be given
func (uc *SurveyUsecase) ListQuestions(ctx context.Context, filter entity.QuestionFilter) ([]entity.Question, error) {
	return uc.catalog.Load(logger.WithAction(ctx, "list_questions"), filter)
}

func (uc *SurveyUsecase) blobKey(sessionID string) string {
	return sessionID + uc.opts.KeySuffix
}

// loadState returns nil when there is no usable state for key
func (uc *SurveyUsecase) loadState(ctx context.Context, key string) (*entity.SurveyState, error) {
	raw, found, err := uc.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get session blob: %w", err)
	}
	if !found {
		return nil, nil
	}

	state, err := DecodeState(raw)
	if err != nil {
		ctxzap.Warn(ctx, "stored survey state is unreadable, starting over", zap.Error(err))
		return nil, nil
	}

	return state, nil
}

func (uc *SurveyUsecase) requireState(ctx context.Context, sessionID string) (*entity.SurveyState, error) {
	state, err := uc.loadState(ctx, uc.blobKey(sessionID))
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, sessionID)
	}
	return state, nil
}

func (uc *SurveyUsecase) initializeState(ctx context.Context, sessionID string, filter entity.QuestionFilter) (*entity.SurveyState, error) {
	questions, err := uc.catalog.Load(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load question catalog: %w", err)
	}

	state := entity.NewSurveyState(sessionID, questions)

	lc := newLifecycle(entity.SessionStatusUninitialized)
	if err := lc.Initialize(ctx); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		if err := lc.Complete(ctx); err != nil {
			return nil, err
		}
	}
	state.Status = lc.Status()

	ctxzap.Info(ctx, "survey session initialized",
		zap.Int("question_count", len(questions)),
		zap.String("status", string(state.Status)),
	)

	return state, nil
}

func (uc *SurveyUsecase) ask(
	ctx context.Context,
	sessionID string,
	questions []entity.Question,
	working []entity.ConversationMessage,
) (*entity.SurveyPromptResponse, error) {
	messages, err := uc.protocol.PromptMessages(questions, working)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	text, err := uc.llm.Complete(ctx, sessionID, messages)
	if err != nil {
		return nil, err
	}

	reply, err := uc.protocol.ParseStructured(text)
	if err != nil {
		return nil, err
	}

	return reply, nil
}

// reconcile derives the next state from a parsed reply. The opening turn of a session only
// greets: no answer can have been given yet, so progress fields are left as initialized.
func (uc *SurveyUsecase) reconcile(
	ctx context.Context,
	state *entity.SurveyState,
	working []entity.ConversationMessage,
	reply *entity.SurveyPromptResponse,
	opening bool,
) (*entity.SurveyState, *entity.SurveyAnswer, error) {
	next := *state
	next.Messages = append(working, entity.ConversationMessage{Role: entity.RoleAssistant, Content: reply.AssistantMessage})
	next.Responses = maps.Clone(state.Responses)
	if next.Responses == nil {
		next.Responses = map[string]string{}
	}

	lc := newLifecycle(state.Status)

	var answer *entity.SurveyAnswer
	switch reply.NextAction {
	case entity.NextActionError:
		ctxzap.Warn(ctx, "assistant reported an error, progress frozen")
		return &next, nil, nil

	case entity.NextActionComplete:
		if err := lc.Complete(ctx); err != nil {
			return nil, nil, err
		}
		next.Status = lc.Status()
	}

	if opening {
		return &next, nil, nil
	}

	if reply.LastQuestionID != nil && reply.LastQuestionOption != nil {
		answer = uc.recordResponse(ctx, &next, *reply.LastQuestionID, *reply.LastQuestionOption)
	}

	if reply.NextAction == entity.NextActionContinue {
		next.CurrentQuestionIdx = min(next.CurrentQuestionIdx+1, next.LastQuestionIdx())
	}

	return &next, answer, nil
}

// recordResponse stores the answer under its question id, overwriting a previous answer
func (uc *SurveyUsecase) recordResponse(ctx context.Context, state *entity.SurveyState, questionID int64, option string) *entity.SurveyAnswer {
	state.Responses[entity.ResponseKey(questionID)] = option

	answer := &entity.SurveyAnswer{
		SessionID:  state.UserID,
		QuestionID: questionID,
		Answer:     option,
		AnsweredAt: uc.now().UTC(),
	}

	known := false
	for _, q := range state.Questions {
		if q.ID != questionID {
			continue
		}
		known = true
		for _, opt := range q.Options {
			if opt.Text == option {
				optionID := opt.ID
				answer.OptionID = &optionID
				answer.Score = opt.Score
				break
			}
		}
		break
	}

	if !known {
		ctxzap.Warn(ctx, "assistant answered a question outside the session catalog",
			zap.Int64("question_id", questionID),
		)
	}

	return answer
}

// persist is best effort, a failed write only costs the progress of this turn
func (uc *SurveyUsecase) persist(ctx context.Context, key string, state *entity.SurveyState) {
	data, err := EncodeState(state)
	if err != nil {
		ctxzap.Error(ctx, "failed to encode survey state", zap.Error(err))
		return
	}

	if err := uc.blobs.Put(ctx, key, data); err != nil {
		ctxzap.Error(ctx, "failed to persist survey state", zap.String("key", key), zap.Error(err))
	}
}

func (uc *SurveyUsecase) recordAnswer(ctx context.Context, answer *entity.SurveyAnswer) {
	if uc.answers == nil {
		return
	}

	if err := uc.answers.UpsertAnswer(ctx, *answer); err != nil {
		ctxzap.Error(ctx, "failed to record survey answer",
			zap.Int64("question_id", answer.QuestionID),
			zap.Error(err),
		)
	}
}

func (uc *SurveyUsecase) result(sessionID, content string, status entity.SessionStatus, degraded bool) *entity.TurnResult {
	return &entity.TurnResult{
		SessionID: sessionID,
		Message:   entity.ConversationMessage{Role: entity.RoleAssistant, Content: content},
		Timestamp: uc.now().UTC(),
		Status:    status,
		Degraded:  degraded,
	}
}

func isAssistantFailure(err error) bool {
	return errors.Is(err, entity.ErrUpstreamUnavailable) ||
		errors.Is(err, entity.ErrMalformedUpstreamResponse) ||
		errors.Is(err, entity.ErrProtocolViolation)
}
