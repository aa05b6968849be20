package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "name,bed_count,pricing/rate/amount,allowsPets\n" +
	"Loft,2,800,True\n" +
	"Cabin,1,500,False\n" +
	"Villa,3,1200,True\n"

const sampleManifest = `
version: 1
numeric: [bed_count, pricing/rate/amount]
boolean: [allowsPets]
labels:
  bed_count: Bed Count
  pricing/rate/amount: Price
projection:
  - {source: name, name: name}
  - {source: pricing/rate/amount, name: price}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "listings.csv")
	manifest := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(data, []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(manifest, []byte(sampleManifest), 0o644))

	opts.limit = 0
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--dataset", data, "--manifest", manifest}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "COLUMN")
	assert.Regexp(t, `bed_count\s+numeric\s+Bed Count`, out)
	assert.Regexp(t, `allowsPets\s+boolean\s+allowsPets`, out)
}

func TestCompileCommand(t *testing.T) {
	out, err := run(t, "compile", "bed_count >= 2 and allowsPets == true")
	require.NoError(t, err)
	assert.Contains(t, out, "`bed_count` >= 2 AND `allowsPets` == true")
	assert.Contains(t, out, "columns: bed_count, allowsPets")

	_, err = run(t, "compile", "beds > 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column")
}

func TestQueryCommand(t *testing.T) {
	out, err := run(t, "query", "pricing/rate/amount < 1000", "--limit", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":["Price"],"listings":[{"name":"Loft","price":800}]}`, out)

	out, err = run(t, "query", "name == 1")
	require.Error(t, err)
	assert.Contains(t, out, `"query_execution_error"`)
}
