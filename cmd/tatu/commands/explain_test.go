package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagon/tatu"
)

func TestExplainKnownRule(t *testing.T) {
	out, err := execute(t, "explain", "stripe-secret", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "stripe-secret")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "Pattern:")
	assert.Contains(t, out, "True Positives:")
	assert.Contains(t, out, "sk_live_ABCDEFGHIJKLMNOPQRST")
}

func TestExplainJSON(t *testing.T) {
	out, err := execute(t, "explain", "Stripe-Secret", "--format", "json")
	require.NoError(t, err)

	var d tatu.RuleDetail
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "stripe-secret", d.ID)
	assert.Equal(t, tatu.SeverityCritical, d.Severity)
	assert.Equal(t, tatu.CategorySecret, d.Category)
	assert.NotEmpty(t, d.Pattern)
	assert.NotEmpty(t, d.TruePositives)
}

func TestExplainConfigCheck(t *testing.T) {
	out, err := execute(t, "explain", "cors-wildcard", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "cors-wildcard")
	assert.NotContains(t, out, "Pattern:")
}

func TestExplainNotFound(t *testing.T) {
	_, err := execute(t, "explain", "no-such-rule")
	require.ErrorIs(t, err, tatu.ErrRuleNotFound)
}
