package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/claim-triage/internal/prompts"
	"github.com/mikey/claim-triage/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoker struct {
	body []byte
	err  error
	in   *bedrockruntime.InvokeModelInput
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.in = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func newTestClient(modelID string, inv *fakeInvoker) *BedrockClient {
	logger := zap.NewNop()
	return NewBedrockClient(inv, modelID, 400, 0, 1, 4096, logger, utils.NewTextProcessor(logger))
}

func requestPayload(t *testing.T, inv *fakeInvoker) map[string]interface{} {
	t.Helper()
	require.NotNil(t, inv.in)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(inv.in.Body, &payload))
	return payload
}

func TestExtractModelFamilies(t *testing.T) {
	const extraction = `{\"invoice_number\":\"INV-4521\",\"confidence\":0.7}`

	tests := []struct {
		name     string
		modelID  string
		response string
		check    func(t *testing.T, payload map[string]interface{})
	}{
		{
			name:     "anthropic",
			modelID:  "anthropic.claude-3-haiku-20240307-v1:0",
			response: `{"content":[{"type":"text","text":"` + extraction + `"}]}`,
			check: func(t *testing.T, payload map[string]interface{}) {
				assert.Equal(t, anthropicVersion, payload["anthropic_version"])
				assert.Equal(t, prompts.SystemPrompt, payload["system"])
				assert.Len(t, payload["messages"], 1)
			},
		},
		{
			name:     "titan",
			modelID:  "amazon.titan-text-express-v1",
			response: `{"results":[{"outputText":"` + extraction + `"}]}`,
			check: func(t *testing.T, payload map[string]interface{}) {
				assert.Contains(t, payload["inputText"], prompts.SystemPrompt)
				assert.Contains(t, payload, "textGenerationConfig")
			},
		},
		{
			name:     "generic",
			modelID:  "meta.llama3-8b-instruct-v1:0",
			response: `{"output":"` + extraction + `"}`,
			check: func(t *testing.T, payload map[string]interface{}) {
				assert.Contains(t, payload["prompt"], "Email SUBJECT")
				assert.EqualValues(t, 400, payload["max_tokens"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{body: []byte(tt.response)}
			c := newTestClient(tt.modelID, inv)

			out, err := c.Extract(context.Background(), "Short delivery", "INV-4521")
			require.NoError(t, err)
			require.NotNil(t, out.InvoiceNumber)
			assert.Equal(t, "INV-4521", string(*out.InvoiceNumber))
			assert.JSONEq(t, `0.7`, string(out.Confidence))

			assert.Equal(t, tt.modelID, aws.ToString(inv.in.ModelId))
			assert.Equal(t, "application/json", aws.ToString(inv.in.ContentType))
			tt.check(t, requestPayload(t, inv))
		})
	}
}

func TestExtractErrors(t *testing.T) {
	errAPI := errors.New("throttled")

	tests := []struct {
		name    string
		modelID string
		inv     *fakeInvoker
	}{
		{name: "invoke error", modelID: "anthropic.claude-v2", inv: &fakeInvoker{err: errAPI}},
		{name: "claude empty", modelID: "anthropic.claude-v2", inv: &fakeInvoker{body: []byte(`{"content":[]}`)}},
		{name: "claude garbage", modelID: "anthropic.claude-v2", inv: &fakeInvoker{body: []byte(`not json`)}},
		{name: "titan empty", modelID: "amazon.titan-text-lite-v1", inv: &fakeInvoker{body: []byte(`{"results":[]}`)}},
		{name: "generic without object", modelID: "cohere.command-text-v14", inv: &fakeInvoker{body: []byte(`{"text":"nothing here"}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestClient(tt.modelID, tt.inv).Extract(context.Background(), "s", "b")
			assert.Error(t, err)
			assert.Nil(t, out)
		})
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "bedrock/amazon.titan-text-express-v1", newTestClient("amazon.titan-text-express-v1", &fakeInvoker{}).Name())
}
