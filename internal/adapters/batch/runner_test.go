package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/claim-triage/internal/adapters/cache"
	"github.com/mikey/claim-triage/internal/adapters/records"
	"github.com/mikey/claim-triage/internal/core"
	"github.com/mikey/claim-triage/internal/whitelist"
)

var errProvider = errors.New("provider down")

type downProvider struct{}

func (downProvider) Name() string { return "down" }

func (downProvider) Extract(context.Context, string, string) (*core.ProviderExtraction, error) {
	return nil, errProvider
}

func newTestPipeline(t *testing.T, c core.ExtractionCache) *core.Pipeline {
	t.Helper()
	logger := zap.NewNop()

	amount := 12000.0
	store := records.NewMemoryStore(records.Fixture{})
	store.AddInvoice("INV-4521", core.InvoiceRecord{ID: 11, Amount: &amount, Status: "POSTED"})
	store.AddPurchaseOrder("4500123", core.PurchaseOrderRecord{ID: 21})
	store.AddGoodsReceipt(21, core.GoodsReceiptRecord{ID: 31})

	normalizer := core.NewClaimNormalizer(core.Available(downProvider{}), c, core.DefaultNormalizerOptions(), logger)
	verifier := core.NewRecordVerifier(store, core.DefaultVerifierOptions(), logger)
	scorer := core.NewSuspicionScorer(core.DefaultScoringPolicy(), whitelist.NewChecker([]string{"@abcchem.com"}, logger))
	return core.NewPipeline(normalizer, verifier, scorer, c, logger)
}

func sampleEmails() []core.ClaimEmail {
	return []core.ClaimEmail{
		{ID: "e1", From: "ap@abcchem.com", Subject: "Short delivery", Body: "Short delivery on INV-4521 against PO 4500123 for ₹12,000", Label: "legit"},
		{ID: "e2", From: "a@other.com", Subject: "Goods not received", Body: "Goods not received for INV-4521 / PO 4500123, amount ₹12,500", Label: "fraud"},
		{ID: "e3", From: "ap@abcchem.com", Subject: "Check", Body: "Please check INV-9999 and PO 4500999", Label: "fraud"},
		{ID: "e4", From: "ap@abcchem.com", Subject: "Payment", Body: "Where is my payment?"},
	}
}

func TestRunnerSummary(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	runner := NewRunner(newTestPipeline(t, nil), 2, zap.New(obs))

	bundles, summary, err := runner.Run(context.Background(), sampleEmails())
	require.NoError(t, err)

	require.Len(t, bundles, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, []string{bundles[0].EmailID, bundles[1].EmailID, bundles[2].EmailID})

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, map[core.Action]int{core.ActionRequestDocs: 2, core.ActionHoldPayment: 1}, summary.Actions)
	assert.Equal(t, map[string]map[core.Action]int{
		"legit": {core.ActionRequestDocs: 1},
		"fraud": {core.ActionHoldPayment: 1, core.ActionRequestDocs: 1},
	}, summary.ByLabel)

	failures := logs.FilterMessage("Failed to process email").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "e4", failures[0].ContextMap()["email_id"])
	assert.Equal(t, 2, logs.FilterMessage("Label breakdown").Len())
	assert.Equal(t, 1, logs.FilterMessage("Batch run finished").Len())
}

func TestRunnerInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(newTestPipeline(t, nil), 0, zap.NewNop())
	bundles, summary, err := runner.Run(ctx, sampleEmails())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, bundles)
	assert.Equal(t, 4, summary.Failed)
}

func TestRunFileWritesBundles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "emails.jsonl")
	out := filepath.Join(dir, "out", "run_summary.json")
	cachePath := filepath.Join(dir, "cache.json")

	var sb strings.Builder
	for _, e := range sampleEmails()[:3] {
		line, err := json.Marshal(e)
		require.NoError(t, err)
		sb.Write(line)
		sb.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(in, []byte(sb.String()), 0o644))

	fileCache, err := cache.NewFileCache(cachePath, zap.NewNop())
	require.NoError(t, err)
	runner := NewRunner(newTestPipeline(t, fileCache), 4, zap.NewNop())

	summary, err := runner.RunFile(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var written []core.Bundle
	require.NoError(t, json.Unmarshal(data, &written))
	require.Len(t, written, 3)
	assert.Equal(t, "e2", written[1].EmailID)
	assert.Equal(t, core.ActionHoldPayment, written[1].Score.Action)
	assert.Equal(t, 0.9, written[1].Score.Score)
	assert.Equal(t, []string{core.ContradictionNotReceivedButGRN, core.ContradictionAmountMismatch}, written[1].Verification.Contradictions)
}

func TestRunFileSkipsBrokenLines(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "emails.jsonl")
	out := filepath.Join(dir, "run_summary.json")

	emails := sampleEmails()
	first, err := json.Marshal(emails[0])
	require.NoError(t, err)
	third, err := json.Marshal(emails[2])
	require.NoError(t, err)
	input := string(first) + "\n{\"email_id\": \"e2\", broken\n" + string(third) + "\n"
	require.NoError(t, os.WriteFile(in, []byte(input), 0o644))

	obs, logs := observer.New(zapcore.WarnLevel)
	runner := NewRunner(newTestPipeline(t, nil), 2, zap.New(obs))

	summary, err := runner.RunFile(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	skipped := logs.FilterMessage("Skipping undecodable record").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, int64(2), skipped[0].ContextMap()["position"])

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var written []struct {
		EmailID string `json:"email_id"`
	}
	require.NoError(t, json.Unmarshal(data, &written))
	require.Len(t, written, 2)
	assert.Equal(t, "e1", written[0].EmailID)
	assert.Equal(t, "e3", written[1].EmailID)
}

func TestRunFileMissingInput(t *testing.T) {
	runner := NewRunner(newTestPipeline(t, nil), 1, zap.NewNop())
	_, err := runner.RunFile(context.Background(), filepath.Join(t.TempDir(), "none.jsonl"), filepath.Join(t.TempDir(), "out.json"))
	assert.Error(t, err)
}

func TestWriteFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b.json")
	require.NoError(t, WriteFile(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestJSONLWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intake", "bundles.jsonl")

	for i := 0; i < 2; i++ {
		w, err := NewJSONLWriter(path)
		require.NoError(t, err)
		require.NoError(t, w.Write(&core.Bundle{EmailID: "m" + string(rune('1'+i)), ProcessedAt: time.Unix(0, 0).UTC()}))
		require.NoError(t, w.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var b core.Bundle
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &b))
		ids = append(ids, b.EmailID)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"m1", "m2"}, ids)
}
