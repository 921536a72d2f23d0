// Package analysis scores a finished voice interview from its transcript:
// a few local text metrics blended with an LLM's evaluation.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rakeshreddymandala/humaneq-hr/internal/llm"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

const evaluatorPrompt = `You are an interview evaluator. Analyze the following candidate transcript:

%s

Provide scores (1-10) for:
- correctness
- relevance
- completeness
- confidence
- professionalism

Then give a final recommendation: Hire / Maybe / Reject.
Respond in JSON format.`

// Local holds metrics computed from the candidate's own turns.
type Local struct {
	AvgLatency    string
	AvgWords      float64
	VocabRichness float64
	Clarity       float64
}

// AI holds the evaluator's subjective scores.
type AI struct {
	Correctness     float64 `json:"correctness"`
	Relevance       float64 `json:"relevance"`
	Completeness    float64 `json:"completeness"`
	Confidence      float64 `json:"confidence"`
	Professionalism float64 `json:"professionalism"`
	Recommendation  string  `json:"recommendation"`
}

// Result is stored on the interview as analysis and finalScore.
type Result struct {
	Analysis   map[string]any
	FinalScore map[string]any
	Score      int
}

// LocalMetrics measures the user turns of a transcript.
func LocalMetrics(turns []model.TranscriptTurn) Local {
	var words, userTurns int
	unique := map[string]struct{}{}
	for _, t := range turns {
		if t.Role != "user" {
			continue
		}
		userTurns++
		fields := strings.Fields(t.Message)
		words += len(fields)
		for _, w := range fields {
			unique[strings.ToLower(w)] = struct{}{}
		}
	}
	return Local{
		AvgLatency:    "2.5s",
		AvgWords:      float64(words) / float64(max(userTurns, 1)),
		VocabRichness: float64(len(unique)) / float64(max(words, 1)) * 100,
		Clarity:       100,
	}
}

// ParseAI decodes the evaluator reply.  Replies that nest the numbers under
// "scores" are flattened.
func ParseAI(reply string) (AI, error) {
	raw := strings.ReplaceAll(reply, "```json", "")
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "```", ""))

	var nested struct {
		Scores         *AI    `json:"scores"`
		Recommendation string `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(raw), &nested); err != nil {
		return AI{}, fmt.Errorf("decode evaluator reply: %w", err)
	}
	if nested.Scores != nil {
		out := *nested.Scores
		if out.Recommendation == "" {
			out.Recommendation = nested.Recommendation
		}
		return out, nil
	}
	var flat AI
	if err := json.Unmarshal([]byte(raw), &flat); err != nil {
		return AI{}, fmt.Errorf("decode evaluator reply: %w", err)
	}
	return flat, nil
}

// FinalScore weights the local score at 40% and the evaluator at 60%.
func FinalScore(l Local, a AI) int {
	local := (l.AvgWords + l.VocabRichness/10 + l.Clarity) / 3
	ai := (a.Correctness + a.Relevance + a.Completeness + a.Confidence + a.Professionalism) / 5
	return int(math.Round(0.4*local + 0.6*ai))
}

// Analyzer runs the full scoring pipeline.
type Analyzer struct {
	llm llm.Client
}

func New(c llm.Client) *Analyzer { return &Analyzer{llm: c} }

// Analyze scores turns.  An empty transcript is an error.
func (a *Analyzer) Analyze(ctx context.Context, turns []model.TranscriptTurn) (*Result, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("empty transcript")
	}
	js, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}
	reply, err := a.llm.Complete(ctx, fmt.Sprintf(evaluatorPrompt, js), "")
	if err != nil {
		return nil, err
	}
	ai, err := ParseAI(reply)
	if err != nil {
		return nil, err
	}
	local := LocalMetrics(turns)
	score := FinalScore(local, ai)

	localMap := map[string]any{
		"avgLatency":    local.AvgLatency,
		"avgWords":      fmt.Sprintf("%.1f", local.AvgWords),
		"vocabRichness": fmt.Sprintf("%.1f%%", local.VocabRichness),
		"clarity":       fmt.Sprintf("%.1f%%", local.Clarity),
	}
	aiMap := map[string]any{
		"correctness":     ai.Correctness,
		"relevance":       ai.Relevance,
		"completeness":    ai.Completeness,
		"confidence":      ai.Confidence,
		"professionalism": ai.Professionalism,
		"recommendation":  ai.Recommendation,
	}
	breakdown := map[string]any{}
	for k, v := range localMap {
		breakdown[k] = v
	}
	for k, v := range aiMap {
		breakdown[k] = v
	}
	return &Result{
		Analysis: map[string]any{"localMetrics": localMap, "aiMetrics": aiMap},
		FinalScore: map[string]any{
			"score":          score,
			"breakdown":      breakdown,
			"interpretation": ai.Recommendation,
		},
		Score: score,
	}, nil
}
