package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PersonIntel/internal/config"
	"PersonIntel/internal/domain"
	"PersonIntel/internal/logging"
)

const configTemplate = `
cache:
  backend: memory
llm:
  endpoint: %[1]s/v1
  apiKey: sk-test
  model: test-model
retry:
  maxRetries: 1
  initialBackoff: 0.01
  maxBackoff: 0.01
social:
  sources:
    - name: twitter
      scanner: web_profiles
      enabled: false
registry:
  sources:
    - name: un_sanctions
      scanner: sanctions_list
      apiUrl: %[1]s
      searchEndpoint: /sanctions
      options:
        nameParam: nameSearch
news:
  sources:
    - name: wire
      scanner: json_api
      apiUrl: %[1]s
      searchEndpoint: /news
`

func fakeUpstream(t *testing.T, sourceCalls *atomic.Int32) *httptest.Server {
	t.Helper()

	published := time.Now().AddDate(0, 0, -10).Format("2006-01-02")
	mux := http.NewServeMux()
	mux.HandleFunc("/sanctions", func(w http.ResponseWriter, _ *http.Request) {
		sourceCalls.Add(1)
		_, _ = w.Write([]byte(`{"results":[{"name":"Alex Example","nationality":"Freedonia","program":"SDN"}]}`))
	})
	mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
		sourceCalls.Add(1)
		fmt.Fprintf(w, `{"articles":[{"title":"Alex Example under investigation","url":"https://wire.example/1","content":"Alex Example is under investigation for fraud.","publishedDate":%q}]}`, published)
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		prompt := string(raw)

		reply := "Consistent findings across sources."
		switch {
		case strings.Contains(prompt, "You plan searches"):
			reply = "Platforms: twitter\nSearch Terms: Alex Example"
		case strings.Contains(prompt, "Start your answer with exactly these two lines"):
			reply = "Risk Level: High\nConfidence: 90%\nListed by the UN."
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, reply)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchEndToEnd(t *testing.T) {
	for _, key := range []string{"DATABASE_DSN", "REDIS_URL", "TELEGRAM_BOT_TOKEN", "OPENAI_MODEL", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}

	var sourceCalls atomic.Int32
	upstream := fakeUpstream(t, &sourceCalls)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(configTemplate, upstream.URL)), 0o600))
	cfg := config.Load(path)

	ctx := context.Background()
	application, err := New(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	intel := application.Search(ctx, "Alex Example")

	require.Equal(t, domain.StageFinalized, intel.Stage)
	require.Equal(t, domain.RiskHigh, intel.RiskLevel)
	require.InDelta(t, 0.9, intel.ConfidenceScore, 1e-9)
	require.Equal(t, "Listed by the UN.", intel.RiskJustification)
	require.Equal(t, []string{"twitter"}, intel.Strategy.Platforms)
	require.Equal(t, []string{"news:wire", "registry:un_sanctions"}, intel.SourcesChecked)
	require.Equal(t, intel.SourcesChecked, intel.SourcesSuccessful)
	require.Len(t, intel.Records.Registry, 1)
	require.Len(t, intel.Records.News, 1)
	require.NotEmpty(t, intel.Records.News[0].Sentiment)
	require.Empty(t, intel.Records.Social)

	require.Len(t, intel.Errors, 1)
	require.Equal(t, "analysis:social", intel.Errors[0].Step)
	require.Equal(t, domain.KindNoFindings, intel.Errors[0].Kind)
	require.EqualValues(t, 2, sourceCalls.Load())

	again := application.Search(ctx, "alex example")
	require.Equal(t, domain.RiskHigh, again.RiskLevel)
	require.EqualValues(t, 2, sourceCalls.Load(), "second run must be served from cache")
	require.Equal(t, 2, application.Cache().Stats(ctx).Entries)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg.RateLimit.RequestsPerPeriod = 0

	_, err := New(context.Background(), cfg, logging.Discard())
	require.ErrorContains(t, err, "rateLimit.requestsPerPeriod")
}
