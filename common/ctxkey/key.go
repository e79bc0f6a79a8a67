package ctxkey

const (
	// RequestId is a per-request unique identifier (also used for logging/metrics).
	// Set in: middleware/request-id. Read in: relay controller for response ids & logs.
	// Note: the literal value matches the response header name for consistency.
	RequestId = "X-Polyrelay-Request-Id"

	// RequestModel is the model id from the parsed inbound request.
	// Set in: relay controller after PARSE. Read in: metrics labels and logging.
	RequestModel = "request_model"

	// RequestFormat is the detected inbound wire format (relay/format.Format string).
	// Set in: relay controller after DETECT.
	RequestFormat = "request_format"

	// ResponseFormat is the caller-selected output wire format.
	// Set in: relay controller during ROUTE from the ?format= query parameter.
	ResponseFormat = "response_format"

	// Provider is the resolved backend provider name ("openai" or "bedrock").
	// Set in: relay controller during ROUTE. Read in: metrics labels.
	Provider = "provider"
)
