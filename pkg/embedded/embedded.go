package embedded

import (
	"embed"
	"fmt"
)

// Prompts holds the prompt templates, one file per variant, stage and provider role.
//
//go:embed data/prompts/*.txt
var Prompts embed.FS

// ReadPrompt returns the raw contents of data/prompts/<name>.txt.
func ReadPrompt(name string) ([]byte, error) {
	data, err := Prompts.ReadFile("data/prompts/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("prompt %q not embedded: %w", name, err)
	}
	return data, nil
}
