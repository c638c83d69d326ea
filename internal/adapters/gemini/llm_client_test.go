package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/claim-triage/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, genai.Text(t))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func newTestClient(g *fakeGenerator) *GeminiClient {
	logger := zap.NewNop()
	return newGeminiClient(nil, g, "gemini-1.5-flash", 4096, logger, utils.NewTextProcessor(logger))
}

func TestExtractJoinsTextParts(t *testing.T) {
	g := &fakeGenerator{resp: textResponse(`{"invoice_number":"INV-77",`, `"currency":"eur","confidence":0.5}`)}
	c := newTestClient(g)

	out, err := c.Extract(context.Background(), "Price mismatch", "Invoice INV-77 is wrong")
	require.NoError(t, err)
	require.NotNil(t, out.InvoiceNumber)
	assert.Equal(t, "INV-77", string(*out.InvoiceNumber))
	require.NotNil(t, out.Currency)
	assert.Equal(t, "eur", string(*out.Currency))

	require.Len(t, g.parts, 1)
	prompt, ok := g.parts[0].(genai.Text)
	require.True(t, ok)
	assert.Contains(t, string(prompt), "Price mismatch")
	assert.Contains(t, string(prompt), "Invoice INV-77 is wrong")
}

func TestExtractErrors(t *testing.T) {
	errAPI := errors.New("quota exceeded")

	tests := []struct {
		name string
		g    *fakeGenerator
	}{
		{name: "api error", g: &fakeGenerator{err: errAPI}},
		{name: "nil response", g: &fakeGenerator{}},
		{name: "no candidates", g: &fakeGenerator{resp: &genai.GenerateContentResponse{}}},
		{name: "no content", g: &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}}},
		{name: "not json", g: &fakeGenerator{resp: textResponse("no idea")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestClient(tt.g).Extract(context.Background(), "s", "b")
			assert.Error(t, err)
			assert.Nil(t, out)
		})
	}
}

func TestCloseWithoutClient(t *testing.T) {
	c := newTestClient(&fakeGenerator{})
	assert.NoError(t, c.Close())
	assert.Equal(t, "gemini/gemini-1.5-flash", c.Name())
}
