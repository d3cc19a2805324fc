package analysis

import (
	"fmt"
	"strings"
	"sync"

	"github.com/MerlinChiodo/multi-agent-orchestration/internal/utils"
	"github.com/MerlinChiodo/multi-agent-orchestration/patterns/graph"
)

// Diagram pseudo-nodes around the executable graph.
const (
	DiagramInput  = "input"
	DiagramOutput = "output"
)

const previewChars = 40

// Labels of the diagram pseudo-nodes.
const (
	inputLabel  = "Input (raw text/PDF extract)"
	outputLabel = "Output (notes, summary, critic, meta, f1, judge)"
)

// DiagramTopology is the structure of the analysis graph framed by the input
// and output pseudo-nodes, with the terminal edge pointing at output.
var DiagramTopology = sync.OnceValue(func() graph.Topology {
	compiled, err := (&Pipeline{}).build()
	if err != nil {
		panic(err)
	}
	topology := compiled.Topology()

	framed := graph.Topology{Entry: DiagramInput}
	framed.Nodes = append(framed.Nodes, graph.NodeInfo{ID: DiagramInput, Label: inputLabel})
	framed.Nodes = append(framed.Nodes, topology.Nodes...)
	framed.Nodes = append(framed.Nodes, graph.NodeInfo{ID: DiagramOutput, Label: outputLabel})

	framed.Edges = append(framed.Edges, graph.EdgeInfo{From: DiagramInput, To: topology.Entry})
	for _, edge := range topology.Edges {
		if edge.To == graph.End {
			edge.To = DiagramOutput
		}
		framed.Edges = append(framed.Edges, edge)
	}
	return framed
})

// routeAppearance is the diagram label and style of a route's edge.
func routeAppearance(route Route) (string, graph.EdgeStyle) {
	switch route {
	case RouteQuality:
		return "long summary", graph.EdgeSolid
	case RouteJudge:
		return "short summary", graph.EdgeDashed
	case RouteRework:
		return "rework (low critic)", graph.EdgeDotted
	default:
		return route.String(), graph.EdgeSolid
	}
}

// StaticDOT is the topology of the analysis graph as Graphviz source.
const StaticDOT = `digraph G {
  rankdir=LR;
  node [shape=box, style="rounded,filled", color="#9ca3af", fillcolor="#f9fafb", fontname="Inter"];

  input      [label="Input (raw text/PDF extract)"];
  retriever  [label="Retriever/Preprocess"];
  reader     [label="Reader - Notes"];
  summarizer [label="Summarizer"];
  translator [label="Translator (DE/EN)"];
  keyword    [label="Keyword Extraction"];
  critic_node [label="Critic - Review"];
  quality    [label="Quality (F1)"];
  judge      [label="LLM Judge"];
  aggregator [label="Judge Aggregator"];
  integrator [label="Integrator - Meta Summary"];
  output     [label="Output (notes, summary, critic, meta, f1, judge)"];

  input -> retriever -> reader -> summarizer -> translator -> keyword -> critic_node;
  critic_node -> quality [label="long summary"];
  critic_node -> judge [label="short summary", style="dashed"];
  critic_node -> summarizer [label="rework (low critic)", style="dotted"];
  quality -> judge -> aggregator -> integrator -> output;
  judge -> aggregator;
}`

const dynamicDOTTemplate = `digraph G {
  rankdir=LR;
  node [shape=box, style="rounded,filled", color="#667eea", fillcolor="#f0f4ff", fontname="Inter"];
  edge [color="#9ca3af"];

  input      [label="Input\n(raw text/PDF)", fillcolor="#e0e7ff", color="#667eea"];
  retriever  [label="Retriever/Preprocess\nAnalysis Context", fillcolor="#f0f4ff"];
  reader     [label="%s", fillcolor="#dbeafe"];
  summarizer [label="%s", fillcolor="#dbeafe"];
  translator [label="%s", fillcolor="#fde68a"];
  keyword    [label="%s", fillcolor="#fef3c7"];
  critic_node [label="%s", fillcolor="#dbeafe"];
  quality    [label="%s", fillcolor="#d1fae5"];
  judge      [label="%s", fillcolor="#c7d2fe"];
  aggregator [label="%s", fillcolor="#c5fde2"];
  integrator [label="%s", fillcolor="#dbeafe"];
  output     [label="Output\n(all results)", fillcolor="#e0e7ff", color="#667eea"];

  input -> retriever -> reader -> summarizer -> translator -> keyword -> critic_node;
  critic_node -> quality [label="long summary", style="solid"];
  critic_node -> judge [label="short summary", style="dashed"];
  critic_node -> summarizer [label="rework (low critic)", style="dotted"];
  quality -> judge -> aggregator -> integrator -> output;
  judge -> aggregator;
}`

// DynamicDOT renders the topology annotated with the values of a finished
// run. A nil state gives StaticDOT. It does not modify state.
func DynamicDOT(state *State) string {
	if state == nil {
		return StaticDOT
	}

	keywords := state.Keywords
	if keywords == "" {
		keywords = "no keywords"
	}

	return fmt.Sprintf(dynamicDOTTemplate,
		fmt.Sprintf(`Reader - Notes\n%.2fs`, state.ReaderSeconds),
		fmt.Sprintf(`Summarizer - Summary\n%.2fs`, state.SummarizerSeconds),
		fmt.Sprintf(`Translator\n%s\n%.2fs`, translationPreview(state.SummaryTranslated), state.TranslatorSeconds),
		fmt.Sprintf(`Keywords\n%s\n%.2fs`, keywords, state.KeywordSeconds),
		fmt.Sprintf(`Critic - Review\n%.2fs`, state.CriticSeconds),
		fmt.Sprintf(`Quality (F1)\n%.3f`, state.QualityF1),
		fmt.Sprintf(`LLM Judge\n%.1f/5`, state.JudgeScore),
		fmt.Sprintf(`Judge Aggregate\n%.3f`, state.JudgeAggregate),
		fmt.Sprintf(`Integrator - Meta Summary\n%.2fs`, state.IntegratorSeconds),
	)
}

func translationPreview(translated string) string {
	preview := strings.ReplaceAll(translated, `"`, `'`)
	if utils.RuneLen(preview) > previewChars {
		return utils.Head(preview, previewChars) + ellipsis
	}
	return preview
}

// Mermaid renders DiagramTopology as a Mermaid flowchart.
func Mermaid() string {
	return DiagramTopology().Mermaid()
}
