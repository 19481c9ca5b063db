package pipeline

import (
	"fmt"
	"io"
	"regexp"

	"github.com/goccy/go-yaml"

	"github.com/docshape/docshape/internal/doctree"
	"github.com/docshape/docshape/internal/transform"
)

// StageFunc applies one transformation step to a document.
type StageFunc func(*doctree.Document) (*doctree.Document, error)

// StageSpec configures a single named stage. Only the fields the named
// stage uses need to be set.
type StageSpec struct {
	Name string `yaml:"name" json:"name"`

	Match *MatcherSpec `yaml:"match,omitempty" json:"match,omitempty"`

	// Tag update for the tag stage.
	Add    []string `yaml:"add,omitempty" json:"add,omitempty"`
	Remove []string `yaml:"remove,omitempty" json:"remove,omitempty"`

	// Split stage fields.
	Pattern        string     `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Tags           []string   `yaml:"tags,omitempty" json:"tags,omitempty"`
	PieceTags      [][]string `yaml:"piece_tags,omitempty" json:"piece_tags,omitempty"`
	AllowNoMatches bool       `yaml:"allow_no_matches,omitempty" json:"allow_no_matches,omitempty"`
}

// MatcherSpec is the serializable form of a transform.Matcher.
type MatcherSpec struct {
	Kinds      []string      `yaml:"kinds,omitempty" json:"kinds,omitempty"`
	Require    [][]string    `yaml:"require,omitempty" json:"require,omitempty"`
	Reject     []string      `yaml:"reject,omitempty" json:"reject,omitempty"`
	Row        *SpanSpec     `yaml:"row,omitempty" json:"row,omitempty"`
	Col        *SpanSpec     `yaml:"col,omitempty" json:"col,omitempty"`
	Ancestors  []MatcherSpec `yaml:"ancestors,omitempty" json:"ancestors,omitempty"`
	Descendant *MatcherSpec  `yaml:"descendant,omitempty" json:"descendant,omitempty"`
}

// SpanSpec is a half-open index range. Negative bounds count from the
// end, as in transform.Span.
type SpanSpec struct {
	Start *int `yaml:"start,omitempty" json:"start,omitempty"`
	End   *int `yaml:"end,omitempty" json:"end,omitempty"`
}

func (s *SpanSpec) build() *transform.Span {
	if s == nil {
		return nil
	}
	return &transform.Span{Start: s.Start, End: s.End}
}

func (m *MatcherSpec) build() *transform.Matcher {
	if m == nil {
		return nil
	}
	out := &transform.Matcher{
		Require:    m.Require,
		Reject:     m.Reject,
		Row:        m.Row.build(),
		Col:        m.Col.build(),
		Descendant: m.Descendant.build(),
	}
	for _, k := range m.Kinds {
		out.Kinds = append(out.Kinds, doctree.Kind(k))
	}
	for _, a := range m.Ancestors {
		out.Ancestors = append(out.Ancestors, *a.build())
	}
	return out
}

// builders maps stage names to constructors.
var builders = map[string]func(StageSpec) (StageFunc, error){
	"merge_lists":   fixedStage(transform.MergeBulletLists),
	"nest_bullets":  fixedStage(transform.NestBullets),
	"nest_sections": fixedStage(transform.NestSections),
	"merge_runs":    fixedStage(transform.MergeRuns),
	"group_lines":   fixedStage(transform.GroupLines),
	"tag":           buildTagStage,
	"filter":        buildFilterStage,
	"split":         buildSplitStage,
	"validate":      buildValidateStage,
}

// StageNames lists the registered stage names.
func StageNames() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	return names
}

func fixedStage(ctor func() *transform.Transformer) func(StageSpec) (StageFunc, error) {
	return func(spec StageSpec) (StageFunc, error) {
		t := ctor()
		return t.Apply, nil
	}
}

func buildTagStage(spec StageSpec) (StageFunc, error) {
	if spec.Match == nil {
		return nil, fmt.Errorf("tag stage requires a match block")
	}
	if len(spec.Add) == 0 && len(spec.Remove) == 0 {
		return nil, fmt.Errorf("tag stage requires add or remove tags")
	}
	t := transform.TagElements(*spec.Match.build(), transform.TagUpdate{
		Add:    spec.Add,
		Remove: spec.Remove,
	})
	return t.Apply, nil
}

func buildFilterStage(spec StageSpec) (StageFunc, error) {
	if spec.Match == nil {
		return nil, fmt.Errorf("filter stage requires a match block")
	}
	t := transform.Filter(*spec.Match.build())
	return t.Apply, nil
}

func buildSplitStage(spec StageSpec) (StageFunc, error) {
	if spec.Pattern == "" {
		return nil, fmt.Errorf("split stage requires a pattern")
	}
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("split pattern: %w", err)
	}
	t := transform.SplitText(transform.SplitConfig{
		Pattern:        re,
		Match:          spec.Match.build(),
		Tags:           spec.Tags,
		PieceTags:      spec.PieceTags,
		AllowNoMatches: spec.AllowNoMatches,
	})
	return t.Apply, nil
}

func buildValidateStage(spec StageSpec) (StageFunc, error) {
	return func(doc *doctree.Document) (*doctree.Document, error) {
		if err := doctree.Validate(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}, nil
}

// BuildStage constructs a stage from its spec.
func BuildStage(spec StageSpec) (StageFunc, error) {
	b, ok := builders[spec.Name]
	if !ok {
		return nil, fmt.Errorf("unknown stage: %s", spec.Name)
	}
	return b(spec)
}

// BuildStages constructs every stage in order.
func BuildStages(specs []StageSpec) ([]StageFunc, error) {
	stages := make([]StageFunc, 0, len(specs))
	for i, spec := range specs {
		stage, err := BuildStage(spec)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, spec.Name, err)
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// Compose chains stages into a single StageFunc.
func Compose(stages []StageFunc) StageFunc {
	return func(doc *doctree.Document) (*doctree.Document, error) {
		var err error
		for _, stage := range stages {
			doc, err = stage(doc)
			if err != nil {
				return nil, err
			}
		}
		return doc, nil
	}
}

// PipelineConfig is the YAML pipeline definition.
type PipelineConfig struct {
	Stages []StageSpec `yaml:"stages" json:"stages"`
}

// LoadPipeline parses a YAML pipeline definition.
func LoadPipeline(r io.Reader) (PipelineConfig, error) {
	var cfg PipelineConfig
	data, err := io.ReadAll(r)
	if err != nil {
		return cfg, fmt.Errorf("read pipeline: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse pipeline: %w", err)
	}
	if len(cfg.Stages) == 0 {
		return cfg, fmt.Errorf("pipeline defines no stages")
	}
	return cfg, nil
}

// DefaultStages is the standard normalization chain applied when no
// pipeline file is configured.
func DefaultStages() []StageSpec {
	return []StageSpec{
		{Name: "merge_lists"},
		{Name: "nest_bullets"},
		{Name: "nest_sections"},
		{Name: "merge_runs"},
		{Name: "validate"},
	}
}
