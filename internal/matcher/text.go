package matcher

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"PersonIntel/internal/domain"
)

var (
	sentenceSplit = regexp.MustCompile(`[^.!?]+[.!?]*`)
	wordExpr      = regexp.MustCompile(`[\p{L}\p{N}']+`)
)

var polarity = map[string]float64{
	"acquitted": 1.5, "award": 2, "awarded": 2, "charity": 1.5, "cleared": 1.5,
	"excellent": 2.5, "good": 1.5, "great": 2, "honored": 2, "innovative": 1.5,
	"praised": 2, "success": 2, "successful": 2, "win": 2, "won": 2,
	"accused": -2, "arrest": -2.5, "arrested": -2.5, "bribery": -3, "charged": -2,
	"convicted": -3, "corruption": -3, "crime": -2.5, "criminal": -2.5, "fine": -1,
	"fined": -2, "fraud": -3, "guilty": -2.5, "illegal": -2.5, "indicted": -3,
	"investigation": -1.5, "laundering": -3, "lawsuit": -1.5, "sanctioned": -2.5,
	"scandal": -2.5, "terrorism": -3.5, "violation": -2,
}

var determiners = map[string]bool{"The": true, "A": true, "An": true}

var negators = map[string]bool{"not": true, "no": true, "never": true, "without": true}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true, "was": true,
	"this": true, "from": true, "have": true, "has": true, "had": true, "are": true,
	"were": true, "been": true, "his": true, "her": true, "their": true, "they": true,
	"which": true, "would": true, "will": true, "said": true, "about": true, "into": true,
	"also": true, "after": true, "over": true, "than": true, "more": true, "its": true,
	"but": true, "not": true, "who": true, "one": true, "all": true, "can": true,
}

// Sentiment scores text with a small polarity lexicon and returns the bucketed
// sentiment with its compound score in [-1,1].
func Sentiment(text string) (domain.Sentiment, float64) {
	words := wordExpr.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return domain.SentimentNeutral, 0
	}

	var sum float64
	for i, w := range words {
		v, ok := polarity[w]
		if !ok {
			continue
		}
		if i > 0 && negators[words[i-1]] {
			v = -v * 0.75
		}
		sum += v
	}
	compound := sum / math.Sqrt(sum*sum+15)
	return domain.SentimentFromCompound(compound), compound
}

// Keywords returns up to n of the most frequent non-trivial words.
func Keywords(text string, n int) []string {
	counts := map[string]int{}
	for _, w := range wordExpr.FindAllString(strings.ToLower(text), -1) {
		if len([]rune(w)) < 3 || stopwords[w] {
			continue
		}
		counts[w]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// Entities returns runs of two or more capitalised words in order of appearance.
func Entities(text string) []string {
	var (
		out  []string
		run  []string
		seen = map[string]bool{}
	)
	flush := func() {
		for len(run) > 0 && determiners[run[0]] {
			run = run[1:]
		}
		if len(run) >= 2 {
			entity := strings.Join(run, " ")
			if !seen[entity] {
				seen[entity] = true
				out = append(out, entity)
			}
		}
		run = run[:0]
	}

	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, func(r rune) bool { return !unicode.IsLetter(r) && r != '\'' })
		if word != "" && unicode.IsUpper([]rune(word)[0]) {
			run = append(run, word)
		} else {
			flush()
			continue
		}
		if strings.ContainsAny(field[len(field)-1:], ".,;:!?") {
			flush()
		}
	}
	flush()
	return out
}

// Summarize keeps the first n sentences of text.
func Summarize(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	sentences := sentenceSplit.FindAllString(text, -1)
	if len(sentences) <= n {
		return text
	}
	parts := make([]string, 0, n)
	for _, s := range sentences[:n] {
		parts = append(parts, strings.TrimSpace(s))
	}
	return strings.Join(parts, " ")
}

// LocalEnricher tags news articles using the heuristics above.
type LocalEnricher struct {
	Keywords  int
	Sentences int
}

// Enrich fills sentiment, entities, keywords and summary from the article text.
func (e LocalEnricher) Enrich(_ context.Context, article domain.NewsArticle) (domain.NewsArticle, error) {
	text := article.Content
	if text == "" {
		text = article.Summary
	}
	if text == "" {
		text = article.Title
	}

	article.Sentiment, _ = Sentiment(text)
	article.Entities = Entities(text)
	article.Keywords = Keywords(text, max(e.Keywords, 1))
	if article.Summary == "" {
		article.Summary = Summarize(text, max(e.Sentences, 1))
	}
	return article, nil
}
