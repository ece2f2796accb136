package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CLASSIFIER_RULES_PATH", "")
	t.Setenv("ROUTING_RULES_PATH", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifySingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice_march.txt")
	require.NoError(t, os.WriteFile(path, []byte("Invoice 1042. Amount due: $1,200. Payment due in 30 days."), 0o600))

	out, err := runCLI(t, "classify", path)
	require.NoError(t, err)

	var got struct {
		Filename       string `json:"filename"`
		Classification struct {
			DocType string `json:"doc_type"`
		} `json:"classification"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "invoice_march.txt", got.Filename)
	assert.Equal(t, "invoice", got.Classification.DocType)
}

func TestClassifyBatchKeepsFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "memo.txt")
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(good, []byte("Quarterly update for the team."), 0o600))
	require.NoError(t, os.WriteFile(empty, []byte("   "), 0o600))

	out, err := runCLI(t, "classify", good, empty)
	require.NoError(t, err)

	var got struct {
		TotalFiles     int `json:"total_files"`
		ProcessedFiles int `json:"processed_files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.TotalFiles)
	assert.Equal(t, 1, got.ProcessedFiles)
}

func TestClassifyMissingFile(t *testing.T) {
	_, err := runCLI(t, "classify", filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read ")
}

func TestValidateEmbeddedRules(t *testing.T) {
	out, err := runCLI(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "classifier rules: ok (embedded)")
	assert.Contains(t, out, "routing table: ok (embedded, 1 rules")
}

func TestValidateRejectsBrokenRoutingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [unclosed"), 0o600))

	_, err := runCLI(t, "validate", "--routing-rules", path)
	require.Error(t, err)
}

func TestRouteCommand(t *testing.T) {
	out, err := runCLI(t, "route", "--doc-id", "d1", "--doc-type", "contract", "--department", "sales", "--risk-score", "0.7")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "legal_counsel", got["assignee"])
	assert.Equal(t, "sensitive_contracts", got["matched_rule"])
}

func TestRouteRejectsUnknownPriority(t *testing.T) {
	_, err := runCLI(t, "route", "--doc-id", "d1", "--priority", "asap")
	require.Error(t, err)
}
