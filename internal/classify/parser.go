// Package classify turns a model reply into a classification and a reason.
package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/msomdec/fraudshield/internal/inference"
	"github.com/samber/lo"
)

// NoReason is used when the reply has no text after the label line.
const NoReason = "No detailed reason provided."

// Parse reads the label from the first line of raw and the reason from the
// rest. A reply carrying the error marker yields ClassificationError with
// raw as the reason. An unrecognized label falls back to keyword matching
// over the whole reply, which then also becomes the reason.
func Parse(raw string) (domain.Classification, string) {
	if inference.HasErrorMarker(raw) {
		return domain.ClassificationError, raw
	}

	first, rest, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	candidate := domain.Classification(normalizeLabel(first))

	reason := strings.TrimSpace(rest)
	if reason == "" {
		reason = NoReason
	}

	if !lo.Contains(domain.Labels(), candidate) {
		return Fallback(raw), raw
	}
	return candidate, reason
}

// Fallback picks a classification from keywords in text. Fraud wins over
// spam, spam over unclear; anything else is Normal.
func Fallback(text string) domain.Classification {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "fraud"), strings.Contains(lower, "digital arrest"):
		return domain.ClassificationFraud
	case strings.Contains(lower, "spam"):
		return domain.ClassificationSpam
	case strings.Contains(lower, "unclear"), strings.Contains(lower, "silent"):
		return domain.ClassificationUnclear
	default:
		return domain.ClassificationNormal
	}
}

// normalizeLabel strips markdown emphasis and a trailing period, then
// title-cases each "/"-separated word: "UNCLEAR/empty" becomes
// "Unclear/Empty".
func normalizeLabel(line string) string {
	line = strings.ReplaceAll(line, "*", "")
	line = strings.TrimSuffix(strings.TrimSpace(line), ".")

	parts := strings.Split(strings.TrimSpace(line), "/")
	for i, p := range parts {
		parts[i] = titleWord(strings.TrimSpace(p))
	}
	return strings.Join(parts, "/")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
