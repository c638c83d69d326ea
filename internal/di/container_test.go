package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/claim-triage/internal/adapters/batch"
	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/core"
	"github.com/mikey/claim-triage/internal/ports"
)

func TestApplyFlags(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	ApplyFlags(cfg, &Flags{
		Provider:    "gemini",
		NoProvider:  true,
		Workers:     8,
		RecordsFile: "testdata/records.json",
		CacheType:   "file",
		Verbose:     true,
	})

	assert.Equal(t, "gemini", cfg.GetLLM().Provider)
	assert.False(t, cfg.GetNormalizerOptions().UseProviderIfIncomplete)
	assert.Equal(t, 8, cfg.GetPipeline().Workers)
	assert.Equal(t, "memory", cfg.GetRecords().Type)
	assert.Equal(t, "testdata/records.json", cfg.GetRecords().FixturePath)
	assert.Equal(t, "file", cfg.GetCache().Type)
	assert.Equal(t, "debug", cfg.GetString("logging.level"))
	assert.Equal(t, "json", cfg.GetString("logging.format"))
}

func TestApplyFlagsLeavesUnsetValues(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	ApplyFlags(cfg, &Flags{})
	ApplyFlags(cfg, nil)

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.True(t, cfg.GetNormalizerOptions().UseProviderIfIncomplete)
	assert.Equal(t, 4, cfg.GetPipeline().Workers)
	assert.Equal(t, "postgres", cfg.GetRecords().Type)
}

func TestClosersRunInReverse(t *testing.T) {
	var order []int
	c := &Closers{}
	c.Add(func() { order = append(order, 1) })
	c.Add(func() { order = append(order, 2) })

	c.Close()
	c.Close()
	assert.Equal(t, []int{2, 1}, order)
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: none
cache:
  type: none
records:
  type: offline
intake:
  listen_address: 127.0.0.1:0
  output_path: `+filepath.Join(dir, "intake.jsonl")+`
logging:
  level: error
`), 0o644))
	return path
}

func TestBuildCLIContainerRunsBatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "emails.jsonl")
	out := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"email_id":"e1","from":"ap@abcchem.com","body":"Short delivery INV-4521 PO 4500123"}`+"\n"), 0o644))

	container, err := BuildCLIContainer(&Flags{ConfigFile: writeConfig(t, dir), Workers: 2})
	require.NoError(t, err)

	err = container.Invoke(func(runner *batch.Runner, closers *Closers) error {
		defer closers.Close()
		summary, err := runner.RunFile(context.Background(), in, out)
		if err != nil {
			return err
		}
		assert.Equal(t, 1, summary.Processed)
		return nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"offline": true`)
}

func TestBuildContainerProvidesIntake(t *testing.T) {
	dir := t.TempDir()
	container, err := BuildContainer(&Flags{ConfigFile: writeConfig(t, dir)})
	require.NoError(t, err)

	err = container.Invoke(func(intake ports.ClaimIntake, processor ports.ClaimProcessor, closers *Closers) {
		defer closers.Close()
		assert.NotNil(t, intake)
		_, ok := processor.(*core.Pipeline)
		assert.True(t, ok)
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "intake.jsonl"))
	assert.NoError(t, err)
}
