package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqldesk/internal/errs"
)

const canvasDoc = `{
  "joinType": "JOIN",
  "nodes": [
    {"id": "a", "data": {"label": "orders", "selectedColumns": ["id"]}},
    {"id": "b", "data": {"label": "customers", "selectedColumns": ["name"]}}
  ],
  "edges": [
    {"id": "e1", "source": "a", "target": "b", "sourceHandle": "customer_id-source", "targetHandle": "id-target"}
  ]
}`

func runCompile(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"compile"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCompile_Stdin(t *testing.T) {
	out, err := runCompile(t, canvasDoc)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT\n  `orders`.`id`,\n  `customers`.`name`\nFROM\n  `orders`\nJOIN `customers` ON `orders`.`customer_id` = `customers`.`id`;\n",
		out)
}

func TestCompile_FileWithFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	require.NoError(t, os.WriteFile(path, []byte(canvasDoc), 0o600))

	out, err := runCompile(t, "", path, "--join", "LEFT JOIN", "--alias")
	require.NoError(t, err)
	assert.Contains(t, out, "FROM\n  `orders` AS `t1`\nLEFT JOIN `customers` AS `t2` ON `t1`.`customer_id` = `t2`.`id`;")
}

func TestCompile_Errors(t *testing.T) {
	_, err := runCompile(t, "{not json")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = runCompile(t, `{"nodes": []}`)
	assert.Equal(t, "Add some tables to the canvas first.", errs.Message(err))
}
