package generation

import (
	"sync"

	"github.com/Conceptual-Machines/hybridation-api/internal/prompt"
)

const (
	VariantStandard  = "standard"
	VariantPanoramic = "panoramic"

	// FormatEquirectangular is reported for panoramic output.
	FormatEquirectangular = "equirectangular_360"
)

// Variant is the output strategy of a generation run. Variants differ only
// in prompts, the size hint sent to the secondary provider and the response
// format tag; the control flow is shared.
type Variant struct {
	Name         string
	Format       string
	FallbackSize string
	Prompts      *prompt.Set
}

var (
	standardPrompts  = sync.OnceValue(func() *prompt.Set { return prompt.MustSet(VariantStandard) })
	panoramicPrompts = sync.OnceValue(func() *prompt.Set { return prompt.MustSet(VariantPanoramic) })
)

// Standard renders a single furnished room view.
func Standard() Variant {
	return Variant{
		Name:         VariantStandard,
		FallbackSize: "1024x1024",
		Prompts:      standardPrompts(),
	}
}

// Panoramic renders a 2:1 equirectangular 360° panorama.
func Panoramic() Variant {
	return Variant{
		Name:         VariantPanoramic,
		Format:       FormatEquirectangular,
		FallbackSize: "1536x1024",
		Prompts:      panoramicPrompts(),
	}
}
