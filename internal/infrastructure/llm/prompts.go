package llm

import (
	"fmt"
	"strings"
	"text/template"

	"PersonIntel/internal/ports"
)

var promptText = map[ports.PromptID]string{
	ports.PromptStrategy: `You plan searches for information about a person named {{.name}}.

Answer with these lines, comma separated values, nothing else:
Platforms: <social platforms most likely to list this person>
Search Terms: <effective search terms>
Name Variations: <alternative spellings or forms of the name>
Regions: <geographic regions worth checking>
Time Period: <how far back adverse media should be searched>`,

	ports.PromptAnalysisSocial: `Analyse these social media profiles found for {{.name}}:

{{.records}}

Say which profiles likely belong to the same person, what they reveal about occupation,
location and affiliations, and any red flags in the content.`,

	ports.PromptAnalysisRegistry: `Analyse these sanctions and PEP (Politically Exposed Person) registry matches for {{.name}}:

{{.records}}

Say which matches appear to be the same individual, note any sanctions, watchlists or
investigations, summarise the level of political exposure and highlight red flags.`,

	ports.PromptAnalysisNews: `Analyse these media mentions of {{.name}}:

{{.records}}

Identify the key allegations, judge the credibility of each source, note whether the
mentions are recent or historical and whether they concern the same individual, and rate
the severity of the issues (financial, criminal, regulatory).`,

	ports.PromptSummary: `Write an intelligence summary for {{.name}} from these analyses.

Social Media Analysis:
{{.social}}

PEP Database Analysis:
{{.registry}}

Adverse Media Analysis:
{{.news}}

List confirmed facts, risk factors, inconsistencies between sources, how confident the
findings are and what further research would help.`,

	ports.PromptRisk: `Assess the overall risk of doing business with {{.name}}.

Social Media Information:
{{.social}}

PEP Database Information:
{{.registry}}

Adverse Media Information:
{{.news}}

Weigh political exposure, legal or regulatory issues, financial misconduct, sanctions and
watchlist presence, severity and recency of adverse media, and links to high-risk parties.

Start your answer with exactly these two lines:
Risk Level: <Low|Medium|High|Critical>
Confidence: <0-100>%

Then give a justification citing specific evidence.`,
}

// Prompts renders prompt templates by id.
type Prompts struct {
	templates map[ports.PromptID]*template.Template
}

// NewPrompts parses the built-in templates.
func NewPrompts() (*Prompts, error) {
	p := &Prompts{templates: make(map[ports.PromptID]*template.Template, len(promptText))}
	for id, text := range promptText {
		tmpl, err := template.New(string(id)).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse prompt %s: %w", id, err)
		}
		p.templates[id] = tmpl
	}
	return p, nil
}

// Render fills the template of id with vars.
func (p *Prompts) Render(id ports.PromptID, vars map[string]string) (string, error) {
	tmpl, ok := p.templates[id]
	if !ok {
		return "", fmt.Errorf("unknown prompt %s", id)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", id, err)
	}
	return sb.String(), nil
}
