package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dominiq/maturity-backend/internal/entity"
	"github.com/dominiq/maturity-backend/internal/pkg/formatter"
	"github.com/dominiq/maturity-backend/internal/pkg/logger"
	"github.com/dominiq/maturity-backend/internal/pkg/response"
	"github.com/dominiq/maturity-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxChatBodyBytes = 1 << 20

type Handler struct {
	usecase   SurveyUsecase
	validator *validator.Validator
}

func NewHandler(usecase SurveyUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// Chat handles POST /maturity-questions/chat - Submit one survey turn
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateChatRequest(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	ctx = logger.AddFields(ctx, zap.String("session_id", req.SessionID))
	ctxzap.Debug(ctx, "handling survey turn", zap.Int("input_length", len(req.InputText)))

	result, err := h.usecase.HandleTurn(ctx, toTurnRequest(&req))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "survey turn handled",
		zap.String("session_id", result.SessionID),
		zap.String("status", string(result.Status)),
		zap.Bool("degraded", result.Degraded),
	)

	h.respondJSON(w, http.StatusOK, toChatResponse(result))
}

// ListQuestions handles GET /maturity-questions - List the catalog for a filter
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListQuestions")

	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid query parameter", err)
		return
	}

	questions, err := h.usecase.ListQuestions(ctx, filter)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "catalog listed", zap.Int("questions", len(questions)))

	h.respondJSON(w, http.StatusOK, entity.QuestionListResponse{
		Questions: questions,
		Total:     len(questions),
	})
}

// GetProgress handles GET /maturity-questions/sessions/{id} - Get survey progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	ctx = logger.AddFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("action", "GetProgress"),
	)

	if err := validator.ValidateSessionID(sessionID, false); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	progress, err := h.usecase.GetProgress(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, progress)
}

// GetResult handles GET /maturity-questions/sessions/{id}/result - Export survey answers
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	ctx = logger.AddFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("action", "GetResult"),
	)

	if err := validator.ValidateSessionID(sessionID, false); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid session id", err)
		return
	}

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(entity.FormatMarkdown)
	}

	format := entity.ResultFormat(formatParam)
	if !format.IsValid() {
		ctxzap.Warn(ctx, "invalid format parameter", zap.String("format", formatParam))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid format parameter",
			fmt.Errorf("format must be one of: markdown, json, docx, pdf"))
		return
	}

	ctx = logger.AddFields(ctx, zap.String("format", string(format)))

	result, err := h.usecase.GetResult(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	fmtr, err := formatter.NewFactory().Create(format)
	if err != nil {
		h.respondError(ctx, w, http.StatusNotImplemented, "format not implemented", err)
		return
	}

	formatted, err := fmtr.Format(result)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to format result", err)
		return
	}

	ctxzap.Info(ctx, "survey result exported", zap.Int("bytes", len(formatted)))
	response.Attachment(w, fmtr.ContentType(), "maturity-survey-"+sessionID+fmtr.FileExtension(), formatted)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	response.JSON(w, status, data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrSessionNotFound) {
		h.respondError(ctx, w, http.StatusNotFound, "survey session not found", err)
	} else if errors.Is(err, entity.ErrInvalidFilter) || errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrInvalidFormat) || errors.Is(err, entity.ErrMissingField) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
