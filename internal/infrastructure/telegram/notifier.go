package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PersonIntel/internal/domain"
	"PersonIntel/internal/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier sends risk alerts to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// Option customises a Notifier.
type Option func(*Notifier)

// WithBaseURL points the notifier at another bot API host.
func WithBaseURL(base string) Option {
	return func(n *Notifier) { n.baseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.client = c }
}

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string, opts ...Option) *Notifier {
	n := &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// PublishAlert posts a Markdown risk alert about report to Telegram.
func (n *Notifier) PublishAlert(ctx context.Context, report domain.Intelligence) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatAlert(report))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}

// FormatAlert renders the chat message for a risky subject.
func FormatAlert(report domain.Intelligence) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Risk alert: %s*\n", report.Name)
	fmt.Fprintf(&sb, "Risk level: *%s* (confidence %.0f%%)\n", strings.ToUpper(string(report.RiskLevel)), report.ConfidenceScore*100)
	fmt.Fprintf(&sb, "Records: %d social, %d registry, %d news\n",
		len(report.Records.Social), len(report.Records.Registry), len(report.Records.News))
	fmt.Fprintf(&sb, "Sources: %d/%d answered\n", len(report.SourcesSuccessful), len(report.SourcesChecked))

	if j := firstLine(report.RiskJustification); j != "" {
		fmt.Fprintf(&sb, "\n%s\n", j)
	}
	fmt.Fprintf(&sb, "\nRun `%s`", report.RunID)
	return sb.String()
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
