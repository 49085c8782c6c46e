package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/hybridation-api/pkg/embedded"
)

// Kind names a prompt within a variant.
type Kind string

const (
	KindEnhance         Kind = "enhance"
	KindEnhanceFallback Kind = "enhance_fallback"
	KindRender          Kind = "render"
	KindRenderFallback  Kind = "render_fallback"
)

var allKinds = []Kind{KindEnhance, KindEnhanceFallback, KindRender, KindRenderFallback}

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// Load returns the trimmed prompt text for a variant and kind.
func (l *Loader) Load(variant string, kind Kind) (string, error) {
	data, err := embedded.ReadPrompt(variant + "_" + string(kind))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
