package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate(`{{.Name}} sells {{default "some" .Qty}} {{upper .Crop}}, tags {{join ", " .Tags}}`, map[string]any{
		"Name": "Ravi",
		"Crop": "okra",
		"Tags": []string{"fresh", "organic"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi sells some OKRA, tags fresh, organic", out)

	out, err = RenderTemplate(`{{json .}}`, map[string]any{"a": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<b>"}`, out)

	_, err = RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}

func TestMustTemplate_Panics(t *testing.T) {
	assert.Panics(t, func() { MustTemplate("{{", nil) })
}

func TestDecodeJSONObject(t *testing.T) {
	var v map[string]any
	err := DecodeJSONObject("Sure!\n```json\n{\"quantity\": 20, \"unit\": \"kg\"}\n```", &v)
	require.NoError(t, err)
	assert.Equal(t, json.Number("20"), v["quantity"])
	assert.Equal(t, "kg", v["unit"])

	assert.ErrorIs(t, DecodeJSONObject("no braces here", &v), ErrNoJSONObject)
	assert.Error(t, DecodeJSONObject("{not json", &v))
}

type sample struct {
	Action   string   `json:"action" description:"what to do"`
	TradeID  *string  `json:"trade_id,omitempty"`
	Quantity float64  `json:"quantity"`
	Tags     []string `json:"tags,omitempty"`
	Hidden   string   `json:"-"`
	internal string
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(&sample{})
	props := schema["properties"].(map[string]any)

	assert.Len(t, props, 4)
	assert.Equal(t, "string", props["action"].(map[string]any)["type"])
	assert.Equal(t, "what to do", props["action"].(map[string]any)["description"])
	assert.Equal(t, "string", props["trade_id"].(map[string]any)["type"])
	assert.Equal(t, "number", props["quantity"].(map[string]any)["type"])
	assert.Equal(t, "array", props["tags"].(map[string]any)["type"])
	assert.ElementsMatch(t, []string{"action", "quantity"}, schema["required"])
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(sample{})

	assert.NoError(t, ValidateParameters(map[string]any{"action": "query", "quantity": json.Number("2.5")}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"action": "query", "quantity": 3, "extra": true}, schema))

	err := ValidateParameters(map[string]any{"quantity": 1.0}, schema)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "action", verr.Field)

	err = ValidateParameters(map[string]any{"action": 7, "quantity": 1.0}, schema)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "action", verr.Field)
	assert.Contains(t, err.Error(), "expected type string")
}

func TestValidateParameters_DecodedSchema(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"type":"object","required":["id"],"properties":{"id":{"type":"integer"}}}`), &schema))

	assert.NoError(t, ValidateParameters(map[string]any{"id": float64(4)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"id": 4.5}, schema))
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
}
