package chat

import (
	"context"

	"github.com/qachat/qa-backend/internal/entity"
)

type ChatUsecase interface {
	Resolve(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResult, error)
}
