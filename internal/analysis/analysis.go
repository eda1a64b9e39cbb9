// Package analysis decodes the payload produced by the textual-analysis
// collaborator for one listing. The collaborator is an external system (an
// LLM behind an API); its output is treated as untrusted input and every
// field is read defensively so a malformed payload degrades to neutral
// scoring inputs instead of failing the listing.
package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmarchal/autocote/pkg/scoring"
)

// RepairItem is one itemized repair cost flagged in the listing text.
type RepairItem struct {
	Item string `json:"item"`
	Cost int    `json:"cost"`
}

// Payload is the decoded analysis for one listing.
type Payload struct {
	Summary       string             `json:"summary,omitempty"`
	Findings      scoring.Findings   `json:"findings"`
	TagsPositive  []string           `json:"confidence_tags_positive,omitempty"`
	TagsNegative  []string           `json:"confidence_tags_negative,omitempty"`
	RepairItems   []RepairItem       `json:"itemized_repair_costs,omitempty"`
	ProductRating float64            `json:"product_quality_rating_0_to_10"`
}

// RepairCost sums the itemized repair costs.
func (p *Payload) RepairCost() int {
	var total int
	for _, item := range p.RepairItems {
		total += item.Cost
	}
	return total
}

type rawItem struct {
	Name     any `json:"name"`
	Severity any `json:"severity"`
}

type rawRepair struct {
	Item any `json:"item"`
	Cost any `json:"cost"`
}

type rawPayload struct {
	Summary  any `json:"summary"`
	Findings struct {
		Mechanical   []rawItem `json:"mechanical"`
		Modification []rawItem `json:"modification"`
		Scam         []rawItem `json:"scam"`
	} `json:"findings"`
	TagsPositive  []any           `json:"confidenceTagsPositive"`
	TagsNegative  []any           `json:"confidenceTagsNegative"`
	Repairs       []rawRepair     `json:"itemizedRepairCosts"`
	ProductRating json.RawMessage `json:"productQualityRating0to10"`
}

// Parse decodes a collaborator payload. Markdown-fenced JSON (a common LLM
// artifact) is unwrapped first. Individual fields of the wrong type fall
// back to neutral defaults; only undecodable JSON returns an error, and the
// zero Payload it comes with is itself a valid neutral input.
func Parse(data []byte) (Payload, error) {
	cleaned := stripFences(data)

	var raw rawPayload
	if err := json.Unmarshal(cleaned, &raw); err != nil {
		return Payload{}, fmt.Errorf("decoding analysis payload: %w", err)
	}

	p := Payload{
		Summary: safeString(raw.Summary),
		Findings: scoring.Findings{
			Mechanical:   convertItems(raw.Findings.Mechanical),
			Modification: convertItems(raw.Findings.Modification),
			Scam:         convertItems(raw.Findings.Scam),
		},
		TagsPositive:  convertTags(raw.TagsPositive),
		TagsNegative:  convertTags(raw.TagsNegative),
		ProductRating: productRating(raw.ProductRating),
	}

	for _, r := range raw.Repairs {
		p.RepairItems = append(p.RepairItems, RepairItem{
			Item: safeString(r.Item),
			Cost: int(safeFloat(r.Cost)),
		})
	}

	return p, nil
}

// stripFences removes a surrounding ```json ... ``` block if present.
func stripFences(data []byte) []byte {
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "```") {
		return data
	}
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
	return []byte(s)
}

func convertItems(items []rawItem) []scoring.SeverityItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]scoring.SeverityItem, 0, len(items))
	for _, it := range items {
		out = append(out, scoring.SeverityItem{
			Name:     safeString(it.Name),
			Severity: safeFloat(it.Severity),
		})
	}
	return out
}

func convertTags(tags []any) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := safeString(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// productRating decodes the equipment-quality rating. A missing field means
// the collaborator did not assess it and scores as average (5); an explicit
// null or malformed value scores as 0.
func productRating(raw json.RawMessage) float64 {
	if raw == nil {
		return 5
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return safeFloat(v)
}

func safeString(v any) string {
	s, _ := v.(string)
	return s
}

// safeFloat casts any JSON scalar to float64, falling back to 0.
func safeFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
