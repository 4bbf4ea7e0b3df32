package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"maintops_backend/platform/apperr"

	"google.golang.org/genai"
)

const classifySystemPrompt = `You are an AI assistant for a property maintenance operations center. You classify incoming maintenance work orders.

PRIORITY GUIDELINES:
- emergency: Active safety hazard, water damage spreading, no heat/cooling in extreme weather, gas smell, electrical fire risk
- high: Major system down but not immediate danger (HVAC not working, appliance broken, plumbing backup)
- medium: Standard repairs needed within 3 days
- low: Routine maintenance, can wait a week
- cosmetic: Appearance only, lowest priority

Consider: is this urgent because of IMPACT, not just keywords? A small drip is not flooding.

SKILLS: plumbing | electrical | hvac | appliance | general | carpentry | locksmith | painting | cleaning
CATEGORIES: plumbing | electrical | hvac | appliance | structural | doors_windows | flooring | painting | cleaning | pest | locksmith | other

Respond with JSON only:
{
  "priority": "medium",
  "priority_confidence": 85,
  "priority_reasoning": "Brief explanation",
  "skills_required": ["plumbing"],
  "certification_required": null,
  "estimated_hours": 1.5,
  "estimated_hours_confidence": 75,
  "time_factors": ["Factors that might extend time"],
  "likely_parts": {
    "high_confidence": ["part1"],
    "bring_just_in_case": ["part2"]
  },
  "category": "plumbing",
  "subcategory": "faucet",
  "flags": {
    "safety_concern": false,
    "possible_tenant_damage": false,
    "likely_recurring": false,
    "multi_visit_likely": false
  }
}`

const analyzePairSystemPrompt = `You are an AI assistant for a property maintenance operations center. Your job is to analyze pairs of work orders to determine if they are duplicates.

You will receive two work orders from the same property unit and need to determine:
1. Are they describing the same maintenance issue?
2. Is the second one a duplicate submission of the first?
3. Does the second one contain new information that should be merged?

Always respond with valid JSON in this exact format:
{
  "recommendation": "MERGE" | "NOT_DUPLICATE" | "NEEDS_REVIEW",
  "confidence": <number 0-100>,
  "reasoning": "<2-3 sentences explaining your decision>",
  "keyDifferences": "<notable differences or null if identical>",
  "mergeNote": "<if MERGE, what context from B should be added to A, otherwise null>"
}`

// Gemini calls the Gemini API for classification. All transport failures
// surface as apperr.KindUnavailable so the Resolver can substitute the
// heuristic; malformed model output degrades to a safe default instead.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini-backed classifier.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Classify implements Classifier.
func (g *Gemini) Classify(ctx context.Context, wo WorkOrderContext) (Classification, error) {
	prompt := buildClassifyPrompt(wo)

	text, err := g.generate(ctx, classifySystemPrompt, prompt)
	if err != nil {
		return Classification{}, err
	}
	return parseClassification(text), nil
}

// AnalyzePair implements Classifier.
func (g *Gemini) AnalyzePair(ctx context.Context, older, newer WorkOrderContext) (PairAnalysis, error) {
	prompt := buildAnalyzePairPrompt(older, newer)

	text, err := g.generate(ctx, analyzePairSystemPrompt, prompt)
	if err != nil {
		return PairAnalysis{}, err
	}
	return parsePairAnalysis(text), nil
}

func (g *Gemini) generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.3),
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", apperr.Unavailable("classifier unreachable", err)
	}

	text := resp.Text()
	if text == "" {
		return "", apperr.Unavailable("classifier returned empty response", nil)
	}
	return text, nil
}

func buildClassifyPrompt(wo WorkOrderContext) string {
	channel := wo.Channel
	if channel == "" {
		channel = "portal"
	}
	return fmt.Sprintf(`Classify this maintenance work order:
- Title: %q
- Description: %q
- Property: %s
- Unit: %s
- Submitted by: %s
- Submitted via: %s
- Submitted at: %s

Respond with JSON only.`,
		wo.Title, wo.Description, wo.Property, wo.Unit,
		wo.ResidentName, channel, wo.CreatedAt.Format("2006-01-02 15:04"))
}

func buildAnalyzePairPrompt(older, newer WorkOrderContext) string {
	return fmt.Sprintf(`Analyze these two work orders to determine if B is a duplicate of A.

WORK ORDER A (Primary - Older):
- ID: %s
- Created: %s
- Property: %s
- Unit: %s
- Description: %q
- Status: %s
- Priority: %s

WORK ORDER B (Potential Duplicate - Newer):
- ID: %s
- Created: %s
- Property: %s
- Unit: %s
- Description: %q
- Status: %s
- Priority: %s

Time between requests: %s

Consider:
1. Are they describing the same issue or different issues?
2. Could the tenant be reporting the same problem twice?
3. Is there NEW information in B that adds to A?
4. Are there any red flags suggesting these are actually different problems?

Respond with JSON only.`,
		older.ID, older.CreatedAt.Format("2006-01-02 15:04"), older.Property, older.Unit,
		older.Description, older.Status, older.Priority,
		newer.ID, newer.CreatedAt.Format("2006-01-02 15:04"), newer.Property, newer.Unit,
		newer.Description, newer.Status, newer.Priority,
		formatTimeBetween(older, newer))
}

func formatTimeBetween(older, newer WorkOrderContext) string {
	diff := newer.CreatedAt.Sub(older.CreatedAt)
	if diff < 0 {
		diff = -diff
	}
	hours := int(diff.Hours())
	days := hours / 24
	if days > 0 {
		return fmt.Sprintf("%d days, %d hours", days, hours%24)
	}
	return fmt.Sprintf("%d hours", hours)
}

// extractJSON pulls the first top-level JSON object out of the model's
// response, tolerating surrounding prose or code fences.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func parseClassification(text string) Classification {
	raw, ok := extractJSON(text)
	if !ok {
		return defaultClassification()
	}

	var parsed struct {
		Priority                 string   `json:"priority"`
		PriorityConfidence       int      `json:"priority_confidence"`
		PriorityReasoning        string   `json:"priority_reasoning"`
		SkillsRequired           []string `json:"skills_required"`
		CertificationRequired    *string  `json:"certification_required"`
		EstimatedHours           float64  `json:"estimated_hours"`
		EstimatedHoursConfidence int      `json:"estimated_hours_confidence"`
		TimeFactors              []string `json:"time_factors"`
		LikelyParts              struct {
			HighConfidence  []string `json:"high_confidence"`
			BringJustInCase []string `json:"bring_just_in_case"`
		} `json:"likely_parts"`
		Category    string  `json:"category"`
		Subcategory *string `json:"subcategory"`
		Flags       struct {
			SafetyConcern        bool `json:"safety_concern"`
			PossibleTenantDamage bool `json:"possible_tenant_damage"`
			LikelyRecurring      bool `json:"likely_recurring"`
			MultiVisitLikely     bool `json:"multi_visit_likely"`
		} `json:"flags"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return defaultClassification()
	}

	priority := strings.ToLower(parsed.Priority)
	switch priority {
	case "emergency", "high", "medium", "low", "cosmetic":
	default:
		return defaultClassification()
	}

	skills := parsed.SkillsRequired
	if len(skills) == 0 {
		skills = []string{"general"}
	}
	category := parsed.Category
	if category == "" {
		category = "other"
	}
	estimatedHours := parsed.EstimatedHours
	if estimatedHours <= 0 {
		estimatedHours = 1.0
	}
	reasoning := parsed.PriorityReasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}

	return Classification{
		Priority:                 priority,
		PriorityConfidence:       clampConfidence(parsed.PriorityConfidence),
		PriorityReasoning:        reasoning,
		SkillsRequired:           skills,
		CertificationRequired:    parsed.CertificationRequired,
		EstimatedHours:           estimatedHours,
		EstimatedHoursConfidence: clampConfidence(parsed.EstimatedHoursConfidence),
		TimeFactors:              parsed.TimeFactors,
		LikelyParts: PartsForecast{
			HighConfidence:  orEmpty(parsed.LikelyParts.HighConfidence),
			BringJustInCase: orEmpty(parsed.LikelyParts.BringJustInCase),
		},
		Category:    category,
		Subcategory: parsed.Subcategory,
		Flags: Flags{
			SafetyConcern:        parsed.Flags.SafetyConcern,
			PossibleTenantDamage: parsed.Flags.PossibleTenantDamage,
			LikelyRecurring:      parsed.Flags.LikelyRecurring,
			MultiVisitLikely:     parsed.Flags.MultiVisitLikely,
		},
	}
}

func parsePairAnalysis(text string) PairAnalysis {
	raw, ok := extractJSON(text)
	if !ok {
		return defaultPairAnalysis()
	}

	var parsed struct {
		Recommendation string  `json:"recommendation"`
		Confidence     int     `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
		KeyDifferences *string `json:"keyDifferences"`
		MergeNote      *string `json:"mergeNote"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return defaultPairAnalysis()
	}

	recommendation := Recommendation(strings.ToUpper(parsed.Recommendation))
	switch recommendation {
	case RecommendationMerge, RecommendationNotDuplicate, RecommendationNeedsReview:
	default:
		return defaultPairAnalysis()
	}

	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}

	return PairAnalysis{
		Recommendation: recommendation,
		Confidence:     clampConfidence(parsed.Confidence),
		Reasoning:      reasoning,
		KeyDifferences: parsed.KeyDifferences,
		MergeNote:      parsed.MergeNote,
	}
}

// defaultClassification is the safe answer when model output cannot be
// trusted: medium priority, zero confidence, flagged for manual review.
func defaultClassification() Classification {
	return Classification{
		Priority:           "medium",
		PriorityConfidence: 0,
		PriorityReasoning:  "AI classification failed - manual review required",
		SkillsRequired:     []string{"general"},
		EstimatedHours:     1.0,
		LikelyParts: PartsForecast{
			HighConfidence:  []string{},
			BringJustInCase: []string{},
		},
		Category: "other",
	}
}

func defaultPairAnalysis() PairAnalysis {
	return PairAnalysis{
		Recommendation: RecommendationNeedsReview,
		Confidence:     0,
		Reasoning:      "AI analysis failed to parse. Manual review required.",
	}
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Classifier = (*Gemini)(nil)
