// Package normalize turns raw assistant replies into typed records.
//
// Replies are cleaned of markdown fences and inline citation markers, then
// decoded. A reply that does not decode never produces an error for the
// caller; it produces a degraded record carrying the cleaned text instead.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ashureev/lawmate/internal/domain"
)

// Placeholder fills string fields of a degraded record.
const Placeholder = "-"

var (
	fencePattern    = regexp.MustCompile("```[A-Za-z0-9_+.-]*")
	citationPattern = regexp.MustCompile(`【[^】\n]*】`)
)

var (
	// ErrNotObject is reported when the cleaned reply holds no JSON object.
	ErrNotObject = errors.New("reply is not a JSON object")
	// ErrNoKnownFields is reported when a JSON object carries none of the expected fields.
	ErrNoKnownFields = errors.New("reply has none of the expected fields")
)

// Result is the outcome of normalizing one reply.
type Result[T any] struct {
	Record   T
	Degraded bool
	// Raw is the reply exactly as received.
	Raw string
	// Err explains why the reply was degraded.
	Err error
}

// Clean removes fence delimiters, then citation markers, then surrounding whitespace.
func Clean(raw string) string {
	text := fencePattern.ReplaceAllString(raw, "")
	text = citationPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Drafting normalizes a reply of the document drafting flow.
func Drafting(raw string) Result[domain.DraftingResult] {
	cleaned := Clean(raw)
	var r domain.DraftingResult
	err := decodeInto(cleaned, []field{
		{"prayer", &r.Prayer},
		{"cause", &r.Cause},
		{"law", &r.Law},
		{"case", &r.Case},
		{"strategy", &r.Strategy},
	})
	if err != nil {
		return Result[domain.DraftingResult]{
			Record: domain.DraftingResult{
				Prayer:   Placeholder,
				Cause:    cleaned,
				Law:      Placeholder,
				Case:     Placeholder,
				Strategy: Placeholder,
			},
			Degraded: true,
			Raw:      raw,
			Err:      err,
		}
	}
	return Result[domain.DraftingResult]{Record: r, Raw: raw}
}

// Strategy normalizes a reply of the strategy conversation.
func Strategy(raw string) Result[domain.StrategyTurn] {
	cleaned := Clean(raw)
	var t domain.StrategyTurn
	err := decodeInto(cleaned, []field{
		{"analysis", &t.Analysis},
		{"options", &t.Options},
		{"risk", &t.Risk},
		{"laws", &t.Laws},
		{"recommendation", &t.Recommendation},
	})
	if err != nil {
		return Result[domain.StrategyTurn]{
			Record: domain.StrategyTurn{
				Analysis:       cleaned,
				Options:        []string{},
				Risk:           Placeholder,
				Laws:           []domain.LawItem{},
				Recommendation: Placeholder,
			},
			Degraded: true,
			Raw:      raw,
			Err:      err,
		}
	}
	if t.Options == nil {
		t.Options = []string{}
	}
	if t.Laws == nil {
		t.Laws = []domain.LawItem{}
	}
	return Result[domain.StrategyTurn]{Record: t, Raw: raw}
}

// Guide normalizes a reply of the statute guide flow.
func Guide(raw string) Result[domain.GuideResult] {
	cleaned := Clean(raw)
	var g domain.GuideResult
	err := decodeInto(cleaned, []field{
		{"strategy", &g.Strategy},
		{"laws", &g.Laws},
	})
	if err != nil {
		return Result[domain.GuideResult]{
			Record:   domain.GuideResult{Strategy: cleaned, Laws: []domain.LawItem{}},
			Degraded: true,
			Raw:      raw,
			Err:      err,
		}
	}
	if g.Laws == nil {
		g.Laws = []domain.LawItem{}
	}
	return Result[domain.GuideResult]{Record: g, Raw: raw}
}

type field struct {
	name string
	dst  any
}

// decodeInto decodes the JSON object in text into the given fields. Fields
// must carry the expected JSON type; unknown fields are ignored and null
// counts as absent.
func decodeInto(text string, fields []field) error {
	span, ok := objectSpan(text)
	if !ok {
		return ErrNotObject
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrNotObject, err)
	}

	known := 0
	for _, f := range fields {
		raw, ok := obj[f.name]
		if !ok || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return fmt.Errorf("decode field %q: %w", f.name, err)
		}
		known++
	}
	if known == 0 {
		return ErrNoKnownFields
	}
	return nil
}

// objectSpan returns text from the first '{' to the last '}', which drops
// chatter the assistant sometimes puts around the object.
func objectSpan(text string) (string, bool) {
	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first == -1 || last < first {
		return "", false
	}
	return text[first : last+1], true
}
