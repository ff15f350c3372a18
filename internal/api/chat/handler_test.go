package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/qachat/qa-backend/internal/entity"
)

type fakeChatUsecase struct {
	result  *entity.QueryResult
	err     error
	lastReq *entity.QueryRequest
}

func (f *fakeChatUsecase) Resolve(_ context.Context, req *entity.QueryRequest) (*entity.QueryResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestRouter(uc ChatUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc))
	return r
}

func TestQueryReturnsResult(t *testing.T) {
	uc := &fakeChatUsecase{result: &entity.QueryResult{
		Matched:         true,
		EntryID:         "e1",
		MatchedQuestion: "How do I start?",
		Answer:          "Run make start.",
		Score:           0.91,
	}}
	router := newTestRouter(uc)

	body := strings.NewReader(`{"question": "how to start?", "top_k": 2}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/query", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if uc.lastReq.Question != "how to start?" || uc.lastReq.TopK != 2 {
		t.Errorf("request not forwarded: %+v", uc.lastReq)
	}

	var result entity.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Matched || result.Answer != "Run make start." {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestQueryNoMatchIsStillOK(t *testing.T) {
	uc := &fakeChatUsecase{result: &entity.QueryResult{Matched: false}}
	router := newTestRouter(uc)

	req := httptest.NewRequest(http.MethodPost, "/chat/query", strings.NewReader(`{"question": "x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("NoMatch must be 200, got %d", rec.Code)
	}
	var result entity.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Matched {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestQueryInvalidJSON(t *testing.T) {
	router := newTestRouter(&fakeChatUsecase{})

	req := httptest.NewRequest(http.MethodPost, "/chat/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQueryErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing field", entity.ErrMissingField, http.StatusBadRequest},
		{"invalid parameter", entity.ErrInvalidParameter, http.StatusBadRequest},
		{"embedder down", entity.ErrEmbedderUnavailable, http.StatusBadGateway},
		{"anything else", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeChatUsecase{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/chat/query", strings.NewReader(`{"question": "x"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
