package controller

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

func getEncoding() *tiktoken.Tiktoken {
	encodingOnce.Do(func() {
		// Estimation only feeds logs and metrics; wire usage always comes
		// from provider token counts. A load failure degrades to zero.
		encoding, _ = tiktoken.EncodingForModel("gpt-3.5-turbo")
	})
	return encoding
}

// estimatePromptTokens approximates the prompt size of a canonical request.
func estimatePromptTokens(request *relaymodel.ChatCompletionRequest) int {
	enc := getEncoding()
	if enc == nil {
		return 0
	}
	total := 0
	for i := range request.Messages {
		// Rough per-message framing overhead, mirroring the OpenAI cookbook
		// counting scheme.
		total += 4
		total += len(enc.Encode(request.Messages[i].StringContent(), nil, nil))
	}
	return total
}
