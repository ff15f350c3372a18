package rephrase

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/entity"
)

// MockConnector echoes the matched answer with a marker prefix.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Rephrase(ctx context.Context, req *entity.RephraseRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] rephrasing answer")
	return fmt.Sprintf("To answer %q: %s", req.Question, req.MatchedAnswer), nil
}
