// Package report renders finished intelligence records for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"PersonIntel/internal/domain"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "json", "markdown" or "md".
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported report format %q", value)
}

// Render writes intel to w in the given format.
func Render(w io.Writer, intel domain.Intelligence, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(intel); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	case FormatMarkdown:
		if _, err := io.WriteString(w, Markdown(intel)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported report format %q", format)
}

// WriteFile renders intel into path, creating parent directories.
func WriteFile(path string, intel domain.Intelligence, format Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Render(f, intel, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Markdown renders the human readable report.
func Markdown(intel domain.Intelligence) string {
	var sb strings.Builder
	p := func(format string, args ...any) { fmt.Fprintf(&sb, format, args...) }

	p("# Intelligence Report: %s\n\n", intel.Name)
	p("**Generated:** %s\n", intel.QueryTime.Format("2006-01-02 15:04:05"))
	p("**Risk Level:** %s\n", strings.ToUpper(string(intel.RiskLevel)))
	p("**Confidence Score:** %.2f/1.0\n\n", intel.ConfidenceScore)

	p("## Summary\n\n%s\n\n", strings.TrimSpace(intel.Summary))
	if intel.RiskJustification != "" {
		p("## Risk Assessment\n\n%s\n\n", intel.RiskJustification)
	}

	writeSocial(&sb, intel.Records.Social)
	writeRegistry(&sb, intel.Records.Registry)
	writeNews(&sb, intel.Records.News)

	p("## Sources\n\n")
	p("* **Sources Checked:** %d\n", len(intel.SourcesChecked))
	p("* **Successful Sources:** %d\n\n", len(intel.SourcesSuccessful))

	if len(intel.Errors) > 0 {
		p("## Errors\n\n")
		for _, e := range intel.Errors {
			p("* **%s** (%s): %s\n", e.Step, e.Kind, e.Message)
		}
	}
	return sb.String()
}

func writeSocial(sb *strings.Builder, profiles []domain.SocialProfile) {
	if len(profiles) == 0 {
		return
	}
	sb.WriteString("## Social Media Presence\n\n")

	var order []string
	bySource := map[string][]domain.SocialProfile{}
	for _, profile := range profiles {
		if _, seen := bySource[profile.Source]; !seen {
			order = append(order, profile.Source)
		}
		bySource[profile.Source] = append(bySource[profile.Source], profile)
	}

	for _, source := range order {
		fmt.Fprintf(sb, "### %s\n\n", title(source))
		for _, profile := range bySource[source] {
			fmt.Fprintf(sb, "* **Username:** %s\n", profile.Username)
			field(sb, "Display Name", profile.DisplayName)
			field(sb, "URL", profile.URL)
			if profile.Followers > 0 {
				fmt.Fprintf(sb, "* **Followers:** %s\n", thousands(profile.Followers))
			}
			if profile.Verified {
				sb.WriteString("* **Verified Account:** Yes\n")
			}
			field(sb, "Bio", profile.Bio)
			sb.WriteString("\n")
		}
	}
}

func writeRegistry(sb *strings.Builder, records []domain.RegistryRecord) {
	if len(records) == 0 {
		return
	}
	sb.WriteString("## Political Exposure & Sanctions\n\n")
	for _, r := range records {
		fmt.Fprintf(sb, "### %s\n\n", r.Source)
		fmt.Fprintf(sb, "* **Name:** %s\n", r.Name)
		field(sb, "Position", r.Position)
		field(sb, "Organization", r.Organization)
		field(sb, "Country", r.Country)
		fmt.Fprintf(sb, "* **Risk:** %s\n", r.RiskLevel)
		field(sb, "Sanctions", strings.Join(r.Sanctions, ", "))
		field(sb, "Watchlists", strings.Join(r.Watchlists, ", "))
		field(sb, "Source URL", r.URL)
		sb.WriteString("\n")
	}
}

func writeNews(sb *strings.Builder, articles []domain.NewsArticle) {
	if len(articles) == 0 {
		return
	}
	sb.WriteString("## Media Coverage\n\n")
	for _, a := range articles {
		fmt.Fprintf(sb, "### %s\n\n", a.Title)
		fmt.Fprintf(sb, "* **Source:** %s\n", a.Source)
		if a.PublishedAt != nil {
			fmt.Fprintf(sb, "* **Date:** %s\n", a.PublishedAt.Format("2006-01-02"))
		}
		field(sb, "Authors", strings.Join(a.Authors, ", "))
		field(sb, "Sentiment", string(a.Sentiment))
		field(sb, "Summary", a.Summary)
		fmt.Fprintf(sb, "* **URL:** %s\n\n", a.URL)
	}
}

func field(sb *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(sb, "* **%s:** %s\n", label, value)
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func thousands(n int) string {
	if n < 0 {
		return "-" + thousands(-n)
	}
	digits := fmt.Sprint(n)
	var out []byte
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return string(out)
}
