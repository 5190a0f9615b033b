package documents

import "strings"

// DefaultConditionKeywords are the conditions recognised in analysis text.
var DefaultConditionKeywords = []string{
	"diabetes", "hypertension", "arthritis", "heart", "cancer", "copd", "asthma",
	"alzheimer", "parkinson", "stroke", "kidney", "liver", "thyroid",
}

// ConditionExtractor pulls condition names out of free-form analysis text.
type ConditionExtractor interface {
	Extract(text string) []string
}

// KeywordExtractor matches keywords as case-insensitive substrings. It will
// report "Heart" for "heartburn"; callers accept that.
type KeywordExtractor struct {
	keywords []string
}

// NewKeywordExtractor returns an extractor over keywords, or over
// DefaultConditionKeywords when none are given.
func NewKeywordExtractor(keywords ...string) *KeywordExtractor {
	if len(keywords) == 0 {
		keywords = DefaultConditionKeywords
	}
	return &KeywordExtractor{keywords: keywords}
}

// Extract returns each matching keyword once, capitalised, in keyword-list
// order.
func (k *KeywordExtractor) Extract(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	seen := make(map[string]bool, len(k.keywords))
	for _, kw := range k.keywords {
		kw = strings.ToLower(kw)
		if kw == "" || seen[kw] || !strings.Contains(lower, kw) {
			continue
		}
		seen[kw] = true
		found = append(found, capitalize(kw))
	}
	return found
}

func capitalize(s string) string {
	return strings.ToUpper(s[:1]) + s[1:]
}

// ClassifyDocumentType derives the document type from a file name.
func ClassifyDocumentType(fileName string) string {
	lower := strings.ToLower(fileName)
	switch {
	case strings.Contains(lower, "prescription"):
		return "prescription"
	case strings.Contains(lower, "lab"):
		return "lab"
	case strings.Contains(lower, "report"):
		return "report"
	default:
		return "medical document"
	}
}
