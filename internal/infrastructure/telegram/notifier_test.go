package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PersonIntel/internal/domain"
)

func alertReport() domain.Intelligence {
	return domain.Intelligence{
		RunID:             "run-7",
		Name:              "Alex Example",
		RiskLevel:         domain.RiskHigh,
		ConfidenceScore:   0.85,
		RiskJustification: "\nListed on OFAC.\nMore detail.",
		Records: domain.RecordSet{
			Registry: []domain.RegistryRecord{{Source: "ofac", Name: "Alex Example"}},
		},
		SourcesChecked:    []string{"news:bing", "registry:ofac"},
		SourcesSuccessful: []string{"registry:ofac"},
	}
}

func TestFormatAlert(t *testing.T) {
	t.Parallel()

	got := FormatAlert(alertReport())
	require.Equal(t, "*Risk alert: Alex Example*\n"+
		"Risk level: *HIGH* (confidence 85%)\n"+
		"Records: 0 social, 1 registry, 0 news\n"+
		"Sources: 1/2 answered\n"+
		"\nListed on OFAC.\n"+
		"\nRun `run-7`", got)
}

func TestPublishAlert(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "Markdown", r.PostForm.Get("parse_mode"))
		assert.Contains(t, r.PostForm.Get("text"), "Risk alert: Alex Example")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	require.NoError(t, n.PublishAlert(context.Background(), alertReport()))
	require.Equal(t, 1, calls)
}

func TestPublishAlertErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad chat", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42", WithBaseURL(srv.URL))
	err := n.PublishAlert(context.Background(), alertReport())
	require.ErrorContains(t, err, "400")

	require.Error(t, NewNotifier("", "42").PublishAlert(context.Background(), alertReport()))
}
