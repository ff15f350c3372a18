package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/entity"
	"github.com/qachat/qa-backend/internal/pkg/logger"
	"github.com/qachat/qa-backend/internal/pkg/response"
)

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Query handles POST /chat/query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ChatQuery")

	var req entity.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.usecase.Resolve(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, result)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter):
		ctxzap.Warn(ctx, "invalid query request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrEmbedderUnavailable):
		ctxzap.Error(ctx, "embedding service unavailable", zap.Error(err))
		response.Error(w, http.StatusBadGateway, "embedding service unavailable")
	default:
		ctxzap.Error(ctx, "internal error", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
