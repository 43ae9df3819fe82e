package functions

import "github.com/danielpatrickdp/agent-rewards/internal/reward"

// #region completion
// Completion scores task completion from, in order: the agent_state
// completed flag, metadata completion_status, then result success/status.
// Missing signals score 0.
func Completion() *reward.Scalar {
	return reward.NewScalar(
		"completion_reward",
		"Rewards agents for completing tasks successfully",
		&reward.UnitBounds,
		completionRaw,
	)
}

func completionRaw(ctx reward.Context) float64 {
	if done, _ := ctx.AgentState.Bool(reward.KeyCompleted); done {
		return 1.0
	}

	if status, ok := ctx.Metadata.String(reward.KeyCompletionStatus); ok {
		switch status {
		case "success":
			return 1.0
		case "partial":
			return 0.5
		case "failed":
			return 0.0
		}
	}

	if ok, _ := ctx.Result.Bool(reward.KeySuccess); ok {
		return 1.0
	}
	if status, ok := ctx.Result.String(reward.KeyStatus); ok {
		switch status {
		case "completed":
			return 1.0
		case "in_progress":
			return 0.3
		}
	}

	return 0.0
}

// #endregion completion

// #region step-completion
// StepCompletion scores completed_steps / total_steps. total_steps falls
// back to requiredSteps when absent.
func StepCompletion(requiredSteps int) *reward.Scalar {
	return reward.NewScalar(
		"step_completion_reward",
		"Rewards agents for completing individual steps",
		&reward.UnitBounds,
		func(ctx reward.Context) float64 {
			completed, _ := ctx.AgentState.Float(reward.KeyCompletedSteps)
			total, ok := ctx.AgentState.Float(reward.KeyTotalSteps)
			if !ok {
				total = float64(requiredSteps)
			}
			if total == 0 {
				return 0
			}
			return completed / total
		},
	)
}

// #endregion step-completion

// #region goal-achievement
// GoalAchievement scores len(achieved_goals) / len(goals).
func GoalAchievement() *reward.Scalar {
	return reward.NewScalar(
		"goal_achievement_reward",
		"Rewards agents for achieving specific goals",
		&reward.UnitBounds,
		func(ctx reward.Context) float64 {
			goals, _ := ctx.AgentState.Len(reward.KeyGoals)
			if goals == 0 {
				return 0
			}
			achieved, _ := ctx.AgentState.Len(reward.KeyAchievedGoals)
			return float64(achieved) / float64(goals)
		},
	)
}

// #endregion goal-achievement
