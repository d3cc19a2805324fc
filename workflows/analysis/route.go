package analysis

import (
	"fmt"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/patterns/graph"
)

// Route is the transition taken after the critic node.
type Route int

const (
	// RouteQuality scores a long summary lexically before judging it.
	RouteQuality Route = iota
	// RouteJudge sends a short summary straight to the judge.
	RouteJudge
	// RouteRework redoes the summary after a low critic score.
	RouteRework
)

func (route Route) String() string {
	switch route {
	case RouteQuality:
		return "quality"
	case RouteJudge:
		return "judge"
	case RouteRework:
		return "rework"
	default:
		return fmt.Sprintf("Route(%d)", int(route))
	}
}

// target is the node a route leads to.
func (route Route) target() (string, error) {
	switch route {
	case RouteQuality:
		return NodeQuality, nil
	case RouteJudge:
		return NodeJudge, nil
	case RouteRework:
		return NodeSummarizer, nil
	default:
		return "", fmt.Errorf("%w: %s", graph.ErrUnknownBranch, route)
	}
}

// Routes lists every route in declaration order.
func Routes() []Route {
	return []Route{RouteQuality, RouteJudge, RouteRework}
}

// EffectiveMaxLoops treats a negative limit as zero.
func EffectiveMaxLoops(maxLoops int) int {
	return max(0, maxLoops)
}

// Decide refreshes the critic score and picks the next route. It is the only
// place that increments CriticLoops.
func Decide(state *State, maxLoops int) Route {
	state.CriticScore = CriticScore(state.Critic, state.QualityF1)

	if state.CriticScore < ReworkThreshold && state.CriticLoops < EffectiveMaxLoops(maxLoops) {
		state.CriticLoops++
		return RouteRework
	}
	if utils.RuneLen(state.Summary) < ShortSummaryChars {
		return RouteJudge
	}
	return RouteQuality
}
