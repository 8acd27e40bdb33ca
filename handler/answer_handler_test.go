package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lacuradellauto/support-rag-be/service"
	"github.com/lacuradellauto/support-rag-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerer struct {
	gotOpts service.AnswerOptions
	result  *service.AnswerResult
	err     error
}

func (f *fakeAnswerer) Answer(ctx context.Context, opts service.AnswerOptions) (*service.AnswerResult, error) {
	f.gotOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func intPtr(n int) *int { return &n }

func postAnswer(t *testing.T, h *AnswerHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/answer", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.HandleAnswer(rec, req)
	return rec
}

func TestHandleAnswerSuccess(t *testing.T) {
	fake := &fakeAnswerer{
		result: &service.AnswerResult{
			Query:  "come lavare l'auto",
			Drafts: []types.Draft{{Text: "Ciao! Usa uno shampoo specifico.", Temperature: 0.3, ElapsedMs: 1200}},
			Model:  "gemma2:2b",
		},
	}
	h := NewAnswerHandler(fake, 3, 3)

	rec := postAnswer(t, h, types.AnswerRequest{Query: "come lavare l'auto", DraftCount: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.DataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var answer types.AnswerResponse
	require.NoError(t, json.Unmarshal(data, &answer))
	assert.Len(t, answer.Drafts, 1)
	assert.False(t, answer.CacheHit)
	assert.Equal(t, "gemma2:2b", answer.Model)
}

func TestHandleAnswerAppliesDefaults(t *testing.T) {
	fake := &fakeAnswerer{result: &service.AnswerResult{}}
	h := NewAnswerHandler(fake, 3, 4)

	postAnswer(t, h, types.AnswerRequest{Query: "q"})
	assert.Equal(t, 3, fake.gotOpts.NTickets)
	assert.Equal(t, 4, fake.gotOpts.NGuides)
}

// An explicit zero skips that collection rather than being swallowed
// by the default.
func TestHandleAnswerExplicitZeroSkipsCollection(t *testing.T) {
	fake := &fakeAnswerer{result: &service.AnswerResult{}}
	h := NewAnswerHandler(fake, 3, 4)

	postAnswer(t, h, types.AnswerRequest{Query: "q", NTickets: intPtr(0), NGuides: intPtr(5)})
	assert.Equal(t, 0, fake.gotOpts.NTickets)
	assert.Equal(t, 5, fake.gotOpts.NGuides)
}

func TestHandleAnswerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", service.NewValidationError("query must not be empty"), http.StatusBadRequest, "query must not be empty"},
		{"retrieval", service.NewRetrievalError("weaviate down", nil), http.StatusBadGateway, "couldn't search the knowledge base"},
		{"embedding", service.NewEmbeddingError("embed failed", nil), http.StatusBadGateway, "couldn't search the knowledge base"},
		{"generation", service.NewGenerationError("timeout", nil), http.StatusServiceUnavailable, "couldn't generate a response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAnswerHandler(&fakeAnswerer{err: tt.err}, 3, 3)
			rec := postAnswer(t, h, types.AnswerRequest{Query: "q"})
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp types.DataResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestHandleAnswerInvalidBody(t *testing.T) {
	h := NewAnswerHandler(&fakeAnswerer{}, 3, 3)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/answer", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.HandleAnswer(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
