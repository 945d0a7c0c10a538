package classifier

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moderationServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIClassifier_MapsCategoryScores(t *testing.T) {
	server := moderationServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		fmt.Fprint(w, `{"results":[{"flagged":true,"category_scores":{
			"self-harm": 0.4,
			"self-harm/intent": 0.92,
			"violence": 0.1,
			"harassment": 0.9
		}}]}`)
	})

	c := NewOpenAIClassifier(OpenAIConfig{APIKey: "test-key", URL: server.URL}, nil)
	scores, err := c.Classify(context.Background(), "some text")
	require.NoError(t, err)

	byCategory := make(map[string]float64)
	for _, s := range scores {
		byCategory[s.Category] = s.Confidence
	}
	// self-harm and self-harm/intent both map to self_harm; max wins.
	assert.InDelta(t, 0.92, byCategory["self_harm"], 1e-9)
	assert.InDelta(t, 0.1, byCategory["violence_gore"], 1e-9)
	// harassment has no mapping and is dropped.
	assert.NotContains(t, byCategory, "harassment")
	assert.Len(t, scores, 2)
}

func TestOpenAIClassifier_EmptyTextSkipsCall(t *testing.T) {
	called := false
	server := moderationServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	c := NewOpenAIClassifier(OpenAIConfig{URL: server.URL}, nil)
	scores, err := c.Classify(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, scores)
	assert.False(t, called)
}

func TestOpenAIClassifier_Non200IsUnavailable(t *testing.T) {
	server := moderationServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	c := NewOpenAIClassifier(OpenAIConfig{URL: server.URL}, nil)
	_, err := c.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIClassifier_GarbageResponseIsUnavailable(t *testing.T) {
	server := moderationServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json at all`)
	})

	c := NewOpenAIClassifier(OpenAIConfig{URL: server.URL}, nil)
	_, err := c.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIClassifier_TimeoutIsUnavailable(t *testing.T) {
	server := moderationServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"results":[]}`)
	})

	c := NewOpenAIClassifier(OpenAIConfig{URL: server.URL, Timeout: 20 * time.Millisecond}, nil)
	_, err := c.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIClassifier_EmptyResultsIsNoSignal(t *testing.T) {
	server := moderationServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	})

	c := NewOpenAIClassifier(OpenAIConfig{URL: server.URL}, nil)
	scores, err := c.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestNoopClassifier(t *testing.T) {
	var n Noop
	scores, err := n.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Nil(t, scores)
	assert.Equal(t, "noop", n.Name())
}
