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

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := `
llm:
  provider: mock
embedding:
  provider: hash
store:
  driver: sqlite
  path: ` + filepath.Join(dir, "trades.db") + `
nats:
  port: -1
  data_dir: ` + filepath.Join(dir, "nats") + `
trade:
  default_farmer_id: FARMER_9
log:
  level: error
`
	path := filepath.Join(dir, "agriconnect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"agriconnect"}, args...))
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "agriconnect dev\n", out)
}

func TestTradeCommands(t *testing.T) {
	t.Setenv("AGRICONNECT_CONFIG", "")
	cfg := writeConfig(t)

	out, err := run(t, "-c", cfg, "trade", "new",
		"--details", `{"product_name":"tomatoes","quantity":20,"unit":"kg","pickup_address":"farm","pickup_datetime_nl":"tomorrow morning"}`,
		"sell tomatoes")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "completed", res["workflow_status"])
	tradeID, _ := res["trade_id"].(string)
	require.NotEmpty(t, tradeID)

	out, err = run(t, "-c", cfg, "trade", "update", tradeID, "logistics_status", "DELIVERED")
	require.NoError(t, err)
	assert.Contains(t, out, `"new_value": "DELIVERED"`)

	_, err = run(t, "-c", cfg, "trade", "update", tradeID, "no_such_field", "x")
	assert.Error(t, err)

	out, err = run(t, "-c", cfg, "trade", "query", "--type", "specific_trade_info", "--trade", tradeID)
	require.NoError(t, err)
	var recs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "tomatoes", recs[0]["product_name"])
	assert.Equal(t, "FARMER_9", recs[0]["farmer_id"])
	assert.Equal(t, "DELIVERED", recs[0]["logistics_status"])
}

func TestTradeNew_RequiresInput(t *testing.T) {
	_, err := run(t, "-c", writeConfig(t), "trade", "new")
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, float64(12.5), parseValue("12.5"))
	assert.Equal(t, true, parseValue("true"))
	assert.Nil(t, parseValue("null"))
	assert.Equal(t, map[string]any{"a": float64(1)}, parseValue(`{"a":1}`))
	assert.Equal(t, "PAID", parseValue("PAID"))
	assert.Equal(t, "{broken", parseValue("{broken"))
}
