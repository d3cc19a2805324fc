package analysis

import (
	"strings"
	"testing"
)

var longSummary = strings.Repeat("The method improves accuracy on the benchmark. ", 4)

func TestDecide(testCase *testing.T) {
	tests := []struct {
		name      string
		critic    string
		summary   string
		loops     int
		maxLoops  int
		want      Route
		wantLoops int
	}{
		{name: "low score reworks", critic: "Coverage: 1", summary: longSummary, maxLoops: 1, want: RouteRework, wantLoops: 1},
		{name: "loop budget spent", critic: "Coverage: 1", summary: longSummary, loops: 1, maxLoops: 1, want: RouteQuality, wantLoops: 1},
		{name: "zero max never reworks", critic: "Coverage: 0", summary: longSummary, maxLoops: 0, want: RouteQuality},
		{name: "negative max never reworks", critic: "Coverage: 0", summary: longSummary, maxLoops: -3, want: RouteQuality},
		{name: "good score long summary", critic: "Coverage: 4", summary: longSummary, maxLoops: 2, want: RouteQuality},
		{name: "good score short summary", critic: "Coverage: 4", summary: "Too short.", maxLoops: 2, want: RouteJudge},
		{name: "threshold is exclusive", critic: "score 0.5", summary: longSummary, maxLoops: 2, want: RouteQuality},
		{name: "rework wins over short summary", critic: "score 0.1", summary: "Too short.", maxLoops: 2, want: RouteRework, wantLoops: 1},
	}

	for _, test := range tests {
		testCase.Run(test.name, func(testCase *testing.T) {
			state := &State{Critic: test.critic, Summary: test.summary, CriticLoops: test.loops}
			got := Decide(state, test.maxLoops)
			if got != test.want {
				testCase.Errorf("Decide = %s, want %s", got, test.want)
			}
			if state.CriticLoops != test.wantLoops {
				testCase.Errorf("CriticLoops = %d, want %d", state.CriticLoops, test.wantLoops)
			}
		})
	}
}

func TestDecide_RefreshesCriticScore(testCase *testing.T) {
	state := &State{Critic: "Coverage: 3", Summary: longSummary, CriticScore: 0.99}
	Decide(state, 1)
	if state.CriticScore != 0.6 {
		testCase.Errorf("CriticScore = %v, want 0.6", state.CriticScore)
	}
}

func TestRoute_StringAndTarget(testCase *testing.T) {
	tests := []struct {
		route  Route
		name   string
		target string
	}{
		{route: RouteQuality, name: "quality", target: NodeQuality},
		{route: RouteJudge, name: "judge", target: NodeJudge},
		{route: RouteRework, name: "rework", target: NodeSummarizer},
	}

	for _, test := range tests {
		if got := test.route.String(); got != test.name {
			testCase.Errorf("String() = %q, want %q", got, test.name)
		}
		target, err := test.route.target()
		if err != nil {
			testCase.Fatalf("target(%s): %v", test.route, err)
		}
		if target != test.target {
			testCase.Errorf("target(%s) = %q, want %q", test.route, target, test.target)
		}
	}

	if _, err := Route(42).target(); err == nil {
		testCase.Error("unknown route should not have a target")
	}
	if got := Route(42).String(); got != "Route(42)" {
		testCase.Errorf("unknown route String() = %q", got)
	}
}

func TestEffectiveMaxLoops(testCase *testing.T) {
	for input, want := range map[int]int{-1: 0, 0: 0, 2: 2} {
		if got := EffectiveMaxLoops(input); got != want {
			testCase.Errorf("EffectiveMaxLoops(%d) = %d, want %d", input, got, want)
		}
	}
}
