package stability

// TextPrompt is a single weighted prompt segment.
type TextPrompt struct {
	Text   string   `json:"text"`
	Weight *float64 `json:"weight,omitempty"`
}

// Request is the Stability SDXL payload.
//
// https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-diffusion-1-0-text-image.html
type Request struct {
	TextPrompts []TextPrompt `json:"text_prompts"`
	CfgScale    *float64     `json:"cfg_scale,omitempty"`
	Steps       int          `json:"steps,omitempty"`
	Seed        int          `json:"seed,omitempty"`
}

type Artifact struct {
	Base64       string `json:"base64"`
	Seed         int    `json:"seed"`
	FinishReason string `json:"finishReason"`
}

// Response is the Stability blocking response.
type Response struct {
	Result    string     `json:"result"`
	Artifacts []Artifact `json:"artifacts"`
}
