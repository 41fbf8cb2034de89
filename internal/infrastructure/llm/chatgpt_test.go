package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PersonIntel/internal/config"
	"PersonIntel/internal/domain"
	"PersonIntel/internal/logging"
	"PersonIntel/internal/metrics"
	"PersonIntel/internal/ports"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*ChatGPTClient, *metrics.Metrics) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	m := metrics.New(prometheus.NewRegistry())
	client, err := NewChatGPTClient(config.LLMConfig{
		Endpoint: server.URL + "/v1/",
		Model:    "test-model",
		APIKey:   "sk-test",
	}, server.Client(), m, logging.Discard())
	require.NoError(t, err)
	return client, m
}

func TestGenerateRendersPromptAndReturnsContent(t *testing.T) {
	t.Parallel()

	var got chatRequest
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Risk Level: Low\nConfidence: 80%  "},"finish_reason":"stop"}]}`))
	})

	text, err := client.Generate(context.Background(), ports.PromptRisk, map[string]string{
		ports.VarName:     "Alex Example",
		ports.VarRegistry: "No PEP matches.",
	})
	require.NoError(t, err)
	require.Equal(t, "Risk Level: Low\nConfidence: 80%", text)

	require.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
	require.NotEmpty(t, got.Messages[0].Content)
	require.Contains(t, got.Messages[1].Content, "Alex Example")
	require.Contains(t, got.Messages[1].Content, "No PEP matches.")
	require.NotContains(t, got.Messages[1].Content, "<no value>")

	require.Equal(t, 1.0, testutil.ToFloat64(m.CollaboratorCalls.WithLabelValues("risk", "ok")))
}

func TestGenerateWrapsFailuresAsCollaboratorErrors(t *testing.T) {
	t.Parallel()

	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	_, err := client.Generate(context.Background(), ports.PromptSummary, map[string]string{ports.VarName: "Alex Example"})
	require.Error(t, err)

	var collab *domain.CollaboratorError
	require.True(t, errors.As(err, &collab))
	require.Equal(t, "summary", collab.Prompt)
	require.Equal(t, domain.KindCollaborator, domain.Classify(err))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CollaboratorCalls.WithLabelValues("summary", "error")))
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[]}`))
	})

	_, err := client.Generate(context.Background(), ports.PromptStrategy, map[string]string{ports.VarName: "Alex Example"})
	require.Error(t, err)
	require.Equal(t, domain.KindCollaborator, domain.Classify(err))
}

func TestNewChatGPTClientRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewChatGPTClient(config.LLMConfig{Model: "m"}, nil, nil, nil)
	require.Error(t, err)
}

func TestPromptsCoverEveryID(t *testing.T) {
	t.Parallel()

	prompts, err := NewPrompts()
	require.NoError(t, err)

	ids := []ports.PromptID{
		ports.PromptStrategy, ports.PromptAnalysisSocial, ports.PromptAnalysisRegistry,
		ports.PromptAnalysisNews, ports.PromptSummary, ports.PromptRisk,
	}
	for _, id := range ids {
		text, err := prompts.Render(id, map[string]string{ports.VarName: "Alex Example", ports.VarRecords: "1. record"})
		require.NoError(t, err, id)
		require.True(t, strings.Contains(text, "Alex Example"), id)
	}

	for _, family := range domain.Families() {
		_, err := prompts.Render(ports.AnalysisPrompt(family), nil)
		require.NoError(t, err, family)
	}

	_, err = prompts.Render("unknown", nil)
	require.Error(t, err)
}
