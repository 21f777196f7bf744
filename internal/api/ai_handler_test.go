package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk-io/supportdesk-ce/internal/ai"
)

type canned struct {
	reply string
	err   error
}

func (p canned) Complete(context.Context, ai.CompletionRequest) (string, error) {
	return p.reply, p.err
}

func (p canned) Name() string { return "canned" }

func aiTestRouter(provider ai.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAIHandler(ai.NewService(provider, 0, 0))

	r := gin.New()
	r.Use(asUser("agent-1", "agent"))
	r.POST("/ai/classify", h.Classify)
	r.POST("/ai/sentiment", h.Sentiment)
	r.POST("/ai/suggest-department", h.SuggestDepartment)
	r.POST("/ai/suggest-response", h.GenerateResponse)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestClassifyEndpoint(t *testing.T) {
	r := aiTestRouter(canned{reply: `{"priority":"high","category":"technical","estimatedResolutionTime":"4-8 hours"}`})

	w := postJSON(t, r, "/ai/classify", `{"title":"Site down","description":"500 on every page"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got ai.Classification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "high", got.Priority)
	assert.Equal(t, "technical", got.Category)
}

func TestClassifyEndpointFallsBack(t *testing.T) {
	r := aiTestRouter(canned{err: errors.New("upstream unavailable")})

	w := postJSON(t, r, "/ai/classify", `{"title":"x","description":"y"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got ai.Classification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "medium", got.Priority)
	assert.Equal(t, "general", got.Category)
	assert.Equal(t, "1-2 days", got.EstimatedResolutionTime)
}

func TestClassifyEndpointValidation(t *testing.T) {
	r := aiTestRouter(canned{})

	w := postJSON(t, r, "/ai/classify", `{"title":"only a title"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSentimentEndpoint(t *testing.T) {
	r := aiTestRouter(canned{reply: `{"sentiment":"negative","score":0.2,"keywords":["frustrated"]}`})

	w := postJSON(t, r, "/ai/sentiment", `{"text":"This is the third time I am asking"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got ai.Sentiment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "negative", got.Sentiment)
	assert.Equal(t, 0.2, got.Score)
}

func TestSuggestDepartmentEndpoint(t *testing.T) {
	r := aiTestRouter(canned{reply: `{"suggestedDepartment":"Engineering","reasoning":"Technical defect"}`})

	w := postJSON(t, r, "/ai/suggest-department", `{"category":"technical","priority":"high","description":"API errors"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got ai.DepartmentSuggestion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Engineering", got.SuggestedDepartment)
}

func TestGenerateResponseEndpoint(t *testing.T) {
	r := aiTestRouter(canned{reply: "Thanks for flagging this, let me take a look."})

	w := postJSON(t, r, "/ai/suggest-response", `{"conversation":[{"role":"customer","content":"Still broken"}],"ticket":{"title":"Login bug","category":"technical"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Thanks for flagging this, let me take a look.", got["response"])
}
