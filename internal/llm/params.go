package llm

// Stage identifies one step of the generation pipeline.
type Stage string

const (
	StageEnhance  Stage = "enhance"
	StageGenerate Stage = "generate"
)

const (
	defaultTemperature   = 0.7
	enhanceMaxTokens     = 200
	defaultOpenAIQuality = "high"
)

// Parameters holds the model settings used for a provider call.
type Parameters struct {
	Model       string
	Temperature float64
	MaxTokens   int64 // zero means provider default
	Quality     string
}

// GeminiParameters returns the settings for a Gemini stage.
func GeminiParameters(stage Stage, textModel, imageModel string) Parameters {
	switch stage {
	case StageGenerate:
		return Parameters{
			Model:       imageModel,
			Temperature: defaultTemperature,
		}
	default:
		// Enhancement runs with model defaults
		return Parameters{Model: textModel}
	}
}

// OpenAIParameters returns the settings for an OpenAI stage.
func OpenAIParameters(stage Stage, textModel, imageModel, quality string) Parameters {
	switch stage {
	case StageGenerate:
		if quality == "" {
			quality = defaultOpenAIQuality
		}
		return Parameters{
			Model:   imageModel,
			Quality: quality,
		}
	default:
		return Parameters{
			Model:       textModel,
			Temperature: defaultTemperature,
			MaxTokens:   enhanceMaxTokens,
		}
	}
}
