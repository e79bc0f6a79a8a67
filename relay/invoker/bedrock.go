package invoker

import (
	"context"
	"io"
	"net"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/apierr"
)

const jsonContentType = "application/json"

type bedrockInvoker struct {
	client *bedrockruntime.Client
}

// NewBedrock builds a Bedrock invoker from the process configuration. Static
// credentials are used when configured, otherwise the default AWS chain.
func NewBedrock(ctx context.Context) (Bedrock, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.AwsRegion),
	}
	if config.AwsAccessKey != "" && config.AwsSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AwsAccessKey, config.AwsSecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindConfiguration, "load aws config")
	}
	return &bedrockInvoker{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

// NewBedrockFromClient wraps an already-configured client, for callers that
// manage their own AWS configuration.
func NewBedrockFromClient(client *bedrockruntime.Client) Bedrock {
	return &bedrockInvoker{client: client}
}

func (b *bedrockInvoker) Invoke(ctx context.Context, modelID string, payload []byte) ([]byte, error) {
	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String(jsonContentType),
		ContentType: aws.String(jsonContentType),
		Body:        payload,
	})
	if err != nil {
		return nil, classifyAwsError(err, "InvokeModel")
	}
	return out.Body, nil
}

func (b *bedrockInvoker) InvokeStream(ctx context.Context, modelID string, payload []byte) (EventStream, error) {
	out, err := b.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String(jsonContentType),
		ContentType: aws.String(jsonContentType),
		Body:        payload,
	})
	if err != nil {
		return nil, classifyAwsError(err, "InvokeModelWithResponseStream")
	}
	return &bedrockEventStream{stream: out.GetStream()}, nil
}

type bedrockEventStream struct {
	stream *bedrockruntime.InvokeModelWithResponseStreamEventStream
}

func (s *bedrockEventStream) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, apierr.Wrap(ctx.Err(), apierr.KindStreaming, "stream canceled")
	case event, ok := <-s.stream.Events():
		if !ok {
			if err := s.stream.Err(); err != nil {
				return nil, classifyStreamError(err)
			}
			return nil, io.EOF
		}
		chunk, ok := event.(*types.ResponseStreamMemberChunk)
		if !ok {
			// Unknown event member; skip to the next one.
			return s.Next(ctx)
		}
		return chunk.Value.Bytes, nil
	}
}

func (s *bedrockEventStream) Close() error {
	return s.stream.Close()
}

// classifyAwsError raises SDK failures into the gateway taxonomy. The mapping
// follows the Bedrock runtime exception set.
func classifyAwsError(err error, op string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind := apierr.KindAPIRequest
		switch apiErr.ErrorCode() {
		case "ThrottlingException":
			kind = apierr.KindRateLimit
		case "AccessDeniedException", "UnrecognizedClientException",
			"ExpiredTokenException", "InvalidSignatureException":
			kind = apierr.KindAuthentication
		case "ResourceNotFoundException":
			kind = apierr.KindModelNotFound
		case "ValidationException":
			kind = apierr.KindAPIRequest
		case "ModelTimeoutException", "ModelNotReadyException",
			"ServiceUnavailableException", "InternalServerException", "ModelErrorException":
			kind = apierr.KindAPIServer
		default:
			if apiErr.ErrorFault() == smithy.FaultServer {
				kind = apierr.KindAPIServer
			}
		}
		return apierr.Wrap(err, kind, "%s: %s", op, apiErr.ErrorMessage()).WithCode(apiErr.ErrorCode())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apierr.Wrap(err, apierr.KindAPIConnection, "%s: network failure", op)
	}
	return apierr.Wrap(err, apierr.KindAPIConnection, "%s failed", op)
}

func classifyStreamError(err error) error {
	if ae := apierr.KindOf(err); ae != 0 {
		return err
	}
	return apierr.Wrap(err, apierr.KindStreaming, "provider stream failed")
}
