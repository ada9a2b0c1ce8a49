// Package insight generates narrative prediction insights via the
// Anthropic API, degrading to the static fallback on any failure.
package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meridian-fm/assetcond/internal/config"
	"github.com/meridian-fm/assetcond/internal/model"
	"github.com/meridian-fm/assetcond/pkg/anthropic"
)

const systemPrompt = `You are a facility condition analyst. Given a deterioration
prediction for a building component, write 2-4 short, factual insight sentences
for a capital planning report. One sentence per line. No headings, no bullets,
no speculation beyond the numbers provided.`

// Generator produces narrative insights for predictions using Claude.
// Implements predict.InsightGenerator.
type Generator struct {
	client  anthropic.Client
	limiter *rate.Limiter
	model   string
	maxTok  int64
}

// New creates a Generator. requestsPerSec bounds the call rate so bulk
// prediction runs do not hammer the API.
func New(client anthropic.Client, cfg config.AnthropicConfig) *Generator {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &Generator{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		model:   cfg.Model,
		maxTok:  cfg.MaxTokens,
	}
}

// Generate asks the model for insight sentences. Any failure returns an
// error; the predictor substitutes the static fallback.
func (g *Generator) Generate(ctx context.Context, pred model.Prediction, series []model.Observation) ([]string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "insight: rate limit wait")
	}

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTok,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(pred, series)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "insight: create message")
	}

	resp.Usage.LogUsage(g.model, "insight")

	lines := splitInsights(resp.Text())
	if len(lines) == 0 {
		return nil, eris.New("insight: empty model response")
	}

	zap.L().Debug("insight: generated",
		zap.String("component_code", pred.ComponentCode),
		zap.Int("sentences", len(lines)),
	)
	return lines, nil
}

// buildPrompt serializes the prediction and its history into a compact
// prompt. Observations text is included when present since surveyor
// notes often explain anomalous trends.
func buildPrompt(pred model.Prediction, series []model.Observation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Component: %s\n", pred.ComponentCode)
	fmt.Fprintf(&b, "Deterioration rate: %.1f%% per year\n", pred.DeteriorationRate)
	fmt.Fprintf(&b, "Current condition estimate: %.0f%%\n", pred.CurrentCondition)
	fmt.Fprintf(&b, "Predicted failure year: %d (remaining life %d years)\n", pred.PredictedFailureYear, pred.PredictedRemainingLife)
	fmt.Fprintf(&b, "Risk level: %s, confidence %d/100\n", pred.RiskLevel, pred.ConfidenceScore)

	if len(series) > 0 {
		b.WriteString("History (age in years, condition %):\n")
		for _, o := range series {
			fmt.Fprintf(&b, "- age %.0f: %.0f%%", o.Age, o.Condition)
			if o.Observations != "" {
				fmt.Fprintf(&b, " (%s)", o.Observations)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// splitInsights breaks the model output into trimmed, non-empty lines.
func splitInsights(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
