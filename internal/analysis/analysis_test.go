package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

type stubLLM struct {
	reply  string
	system string
}

func (s *stubLLM) Complete(_ context.Context, system, _ string) (string, error) {
	s.system = system
	return s.reply, nil
}

func (s *stubLLM) Provider() string { return "stub" }

var transcript = []model.TranscriptTurn{
	{Role: "agent", Message: "Tell me about yourself"},
	{Role: "user", Message: "I build APIs in Go"},
	{Role: "user", Message: "and I like go"},
}

func TestLocalMetrics(t *testing.T) {
	m := LocalMetrics(transcript)
	assert.InDelta(t, 4.5, m.AvgWords, 0.001)
	// 9 words, 7 distinct after lower-casing ("go" and "i" repeat).
	assert.InDelta(t, 7.0/9.0*100, m.VocabRichness, 0.001)
	assert.Equal(t, 100.0, m.Clarity)

	empty := LocalMetrics(nil)
	assert.Equal(t, 0.0, empty.AvgWords)
}

func TestParseAINestedAndFlat(t *testing.T) {
	a, err := ParseAI("```json\n{\"scores\":{\"correctness\":8,\"relevance\":7,\"completeness\":6,\"confidence\":9,\"professionalism\":10},\"recommendation\":\"Hire\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, 8.0, a.Correctness)
	assert.Equal(t, "Hire", a.Recommendation)

	a, err = ParseAI(`{"correctness":5,"relevance":5,"completeness":5,"confidence":5,"professionalism":5,"recommendation":"Maybe"}`)
	require.NoError(t, err)
	assert.Equal(t, 5.0, a.Professionalism)

	_, err = ParseAI("not json")
	assert.Error(t, err)
}

func TestFinalScore(t *testing.T) {
	l := Local{AvgWords: 10, VocabRichness: 50, Clarity: 100}
	a := AI{Correctness: 8, Relevance: 8, Completeness: 8, Confidence: 8, Professionalism: 8}
	// local = (10 + 5 + 100) / 3 = 38.33, ai = 8 -> 0.4*38.33 + 0.6*8 = 20.13
	assert.Equal(t, 20, FinalScore(l, a))
}

func TestAnalyze(t *testing.T) {
	s := &stubLLM{reply: `{"correctness":8,"relevance":8,"completeness":8,"confidence":8,"professionalism":8,"recommendation":"Hire"}`}
	res, err := New(s).Analyze(context.Background(), transcript)
	require.NoError(t, err)
	assert.Contains(t, s.system, "I build APIs in Go")
	assert.Equal(t, "Hire", res.FinalScore["interpretation"])
	assert.Equal(t, res.Score, res.FinalScore["score"])
	assert.Contains(t, res.Analysis, "localMetrics")

	_, err = New(s).Analyze(context.Background(), nil)
	assert.Error(t, err)
}
