package tasks

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/foundation/normalization"
)

// VisualizationFormat selects the output of Visualize.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
	FormatDOT     VisualizationFormat = "dot"
	FormatJSON    VisualizationFormat = "json"
)

// SupportedFormats lists every VisualizationFormat.
func SupportedFormats() []VisualizationFormat {
	return []VisualizationFormat{FormatText, FormatMermaid, FormatDOT, FormatJSON}
}

var formats = normalization.New("format", map[string]VisualizationFormat{
	"":         FormatText,
	"text":     FormatText,
	"mermaid":  FormatMermaid,
	"dot":      FormatDOT,
	"graphviz": FormatDOT,
	"json":     FormatJSON,
})

// ParseFormat resolves a format name; "graphviz" is accepted for dot.
func ParseFormat(raw string) (VisualizationFormat, error) {
	return formats.Parse(raw)
}

// FormatDescription returns a one-line description of format.
func FormatDescription(format VisualizationFormat) string {
	switch format {
	case FormatText:
		return "Tree of tasks, phases and stages"
	case FormatMermaid:
		return "Mermaid flowchart for Markdown docs"
	case FormatDOT:
		return "Graphviz DOT graph"
	case FormatJSON:
		return "Machine-readable task table"
	}
	return ""
}

type phaseView struct {
	Name    string   `json:"name"`
	Source  string   `json:"source"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude,omitempty"`
	OutDir  string   `json:"out_dir"`
	Stages  []string `json:"stages,omitempty"`
	Pack    string   `json:"pack,omitempty"`
}

type taskView struct {
	Name   string      `json:"name"`
	Mode   string      `json:"mode"`
	Watch  []string    `json:"watch,omitempty"`
	Phases []phaseView `json:"phases"`
}

func views(defs []TaskDef) []taskView {
	out := make([]taskView, 0, len(defs))
	for _, d := range defs {
		tv := taskView{Name: d.Name, Mode: d.Mode.String(), Watch: d.Watch}
		for _, p := range d.Phases {
			name := p.Name
			if name == "" {
				name = "main"
			}
			pv := phaseView{
				Name:    name,
				Source:  filepath.ToSlash(p.Source.Root),
				Include: p.Source.Include,
				Exclude: p.Source.Exclude,
				OutDir:  filepath.ToSlash(p.OutDir),
			}
			for _, s := range p.Stages {
				pv.Stages = append(pv.Stages, s.Name())
			}
			if p.Pack != nil {
				pv.Pack = p.Pack.Name()
			}
			tv.Phases = append(tv.Phases, pv)
		}
		out = append(out, tv)
	}
	return out
}

func (p phaseView) steps() []string {
	steps := append([]string(nil), p.Stages...)
	if p.Pack != "" {
		steps = append(steps, p.Pack)
	}
	return steps
}

// Visualize renders the task table of one mode.
func Visualize(defs []TaskDef, mode config.Mode, format VisualizationFormat) (string, error) {
	tv := views(defs)
	switch format {
	case FormatText:
		return visualizeText(tv, mode), nil
	case FormatMermaid:
		return visualizeMermaid(tv), nil
	case FormatDOT:
		return visualizeDOT(tv, mode), nil
	case FormatJSON:
		b, err := json.MarshalIndent(map[string]any{"mode": mode.String(), "tasks": tv}, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	}
	return "", fmt.Errorf("unsupported format: %s", format)
}

func visualizeText(tv []taskView, mode config.Mode) string {
	var sb strings.Builder
	title := fmt.Sprintf("Task table (%s)", mode)
	sb.WriteString(title + "\n" + strings.Repeat("=", len(title)) + "\n\n")
	for _, t := range tv {
		fmt.Fprintf(&sb, "┌─ %s\n", t.Name)
		for i, p := range t.Phases {
			prefix := "├──"
			if i == len(t.Phases)-1 {
				prefix = "└──"
			}
			fmt.Fprintf(&sb, "│ %s [%s] %s {%s} -> %s\n", prefix, p.Name, p.Source, strings.Join(p.Include, ","), p.OutDir)
			if steps := p.steps(); len(steps) > 0 {
				fmt.Fprintf(&sb, "│       %s\n", strings.Join(steps, " -> "))
			}
		}
		if len(t.Watch) > 0 {
			fmt.Fprintf(&sb, "│   watch: %s\n", strings.Join(t.Watch, ", "))
		}
		sb.WriteString("│\n")
	}
	fmt.Fprintf(&sb, "Total: %d tasks\n", len(tv))
	return sb.String()
}

func nodeID(parts ...string) string {
	r := strings.NewReplacer("-", "_", ".", "_", " ", "_")
	return r.Replace(strings.Join(parts, "_"))
}

func visualizeMermaid(tv []taskView) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\ngraph LR\n")
	for _, t := range tv {
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", nodeID("task", t.Name), t.Name)
		prev := ""
		for _, p := range t.Phases {
			for _, s := range p.steps() {
				id := nodeID(t.Name, p.Name, s)
				fmt.Fprintf(&sb, "        %s[\"%s\"]\n", id, s)
				if prev != "" {
					fmt.Fprintf(&sb, "        %s --> %s\n", prev, id)
				}
				prev = id
			}
		}
		sb.WriteString("    end\n")
	}
	sb.WriteString("```\n")
	return sb.String()
}

func visualizeDOT(tv []taskView, mode config.Mode) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph sitepipe_%s {\n    rankdir=LR;\n    node [shape=box];\n", mode)
	for _, t := range tv {
		fmt.Fprintf(&sb, "    subgraph cluster_%s {\n        label=%q;\n", nodeID(t.Name), t.Name)
		prev := ""
		for _, p := range t.Phases {
			for _, s := range p.steps() {
				id := nodeID(t.Name, p.Name, s)
				fmt.Fprintf(&sb, "        %s [label=%q];\n", id, s)
				if prev != "" {
					fmt.Fprintf(&sb, "        %s -> %s;\n", prev, id)
				}
				prev = id
			}
		}
		sb.WriteString("    }\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
