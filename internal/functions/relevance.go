package functions

import (
	"strings"

	"github.com/danielpatrickdp/agent-rewards/internal/reward"
)

// neutral is returned when a relevance function has no signal at all.
const neutral = 0.5

// #region relevance
// Relevance reads a relevance score from metadata, then from the result's
// relevance or score field. No signal scores 0.5.
func Relevance() *reward.Scalar {
	return reward.NewScalar(
		"relevance_reward",
		"Rewards agents for relevant actions and responses",
		&reward.UnitBounds,
		func(ctx reward.Context) float64 {
			if v, ok := ctx.Metadata.Float(reward.KeyRelevanceScore); ok {
				return v
			}
			if v, ok := ctx.Result.Float(reward.KeyRelevance); ok {
				return v
			}
			if v, ok := ctx.Result.Float(reward.KeyScore); ok {
				return v
			}
			return neutral
		},
	)
}

// #endregion relevance

// #region content-relevance
// ContentRelevance uses metadata content_relevance when supplied, otherwise
// the fraction of metadata keywords found in the generated content.
func ContentRelevance() *reward.Scalar {
	return reward.NewScalar(
		"content_relevance_reward",
		"Rewards agents for generating relevant content",
		&reward.UnitBounds,
		func(ctx reward.Context) float64 {
			if v, ok := ctx.Metadata.Float(reward.KeyContentRelevance); ok {
				return v
			}
			keywords, _ := ctx.Metadata.Strings(reward.KeyKeywords)
			content, _ := ctx.AgentState.String(reward.KeyGeneratedContent)
			if len(keywords) == 0 || content == "" {
				return neutral
			}
			return keywordCoverage(keywords, content)
		},
	)
}

func keywordCoverage(keywords []string, content string) float64 {
	lower := strings.ToLower(content)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

// #endregion content-relevance

// #region context-awareness
// ContextAwareness scores how much of the available context the agent used.
func ContextAwareness() *reward.Scalar {
	return reward.NewScalar(
		"context_awareness_reward",
		"Rewards agents for being aware of context",
		&reward.UnitBounds,
		func(ctx reward.Context) float64 {
			available, _ := ctx.AgentState.Len(reward.KeyAvailableContext)
			if available == 0 {
				return neutral
			}
			used, _ := ctx.AgentState.Len(reward.KeyUsedContext)
			return float64(used) / float64(available)
		},
	)
}

// #endregion context-awareness
