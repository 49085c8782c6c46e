package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

// Set is the full prompt set of one output variant.
type Set struct {
	variant         string
	enhance         string
	enhanceFallback string
	render          *template.Template
	renderFallback  *template.Template
}

type renderData struct {
	Style string
}

// NewSet loads and parses every prompt of a variant.
func NewSet(loader *Loader, variant string) (*Set, error) {
	texts := make(map[Kind]string, len(allKinds))
	for _, kind := range allKinds {
		text, err := loader.Load(variant, kind)
		if err != nil {
			return nil, err
		}
		texts[kind] = text
	}

	render, err := template.New(variant + "_render").Option("missingkey=error").Parse(texts[KindRender])
	if err != nil {
		return nil, fmt.Errorf("parse %s render prompt: %w", variant, err)
	}
	renderFallback, err := template.New(variant + "_render_fallback").Option("missingkey=error").Parse(texts[KindRenderFallback])
	if err != nil {
		return nil, fmt.Errorf("parse %s fallback render prompt: %w", variant, err)
	}

	return &Set{
		variant:         variant,
		enhance:         texts[KindEnhance],
		enhanceFallback: texts[KindEnhanceFallback],
		render:          render,
		renderFallback:  renderFallback,
	}, nil
}

// MustSet is NewSet for the embedded variants, which are known to parse.
func MustSet(variant string) *Set {
	set, err := NewSet(NewPromptLoader(), variant)
	if err != nil {
		panic(err)
	}
	return set
}

func (s *Set) Variant() string {
	return s.variant
}

// EnhanceInstruction returns the instruction sent with the user's style.
func (s *Set) EnhanceInstruction(fallback bool) string {
	if fallback {
		return s.enhanceFallback
	}
	return s.enhance
}

// Render fills the image prompt with the enhanced style.
func (s *Set) Render(fallback bool, style string) (string, error) {
	tmpl := s.render
	if fallback {
		tmpl = s.renderFallback
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, renderData{Style: style}); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", s.variant, err)
	}
	return b.String(), nil
}
