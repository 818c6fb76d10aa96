package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestResolveSpec_ConventionalNames(t *testing.T) {
	spec, err := resolveSpec(
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		Overrides{},
	)

	require.NoError(t, err)
	assert.Equal(t, "input_ids", spec.inputIDs)
	assert.Equal(t, "attention_mask", spec.mask)
	assert.Equal(t, "last_hidden_state", spec.output)
}

func TestResolveSpec_KeywordFallback(t *testing.T) {
	spec, err := resolveSpec(
		[]string{"InputIds:0", "AttnMask:0"},
		[]string{"pooled_output"},
		Overrides{},
	)

	require.NoError(t, err)
	assert.Equal(t, "InputIds:0", spec.inputIDs)
	assert.Equal(t, "AttnMask:0", spec.mask)
	assert.Equal(t, "pooled_output", spec.output)
}

func TestResolveSpec_SortedFirstFallback(t *testing.T) {
	// Nothing matches conventionally or by keyword: the first name in
	// sorted order wins for each required tensor.
	spec, err := resolveSpec(
		[]string{"zzz", "aaa"},
		[]string{"embeddings"},
		Overrides{},
	)

	require.NoError(t, err)
	assert.Equal(t, "aaa", spec.inputIDs)
	assert.Equal(t, "aaa", spec.mask)
	assert.Equal(t, "embeddings", spec.output)
}

func TestResolveSpec_NoInputsIsConfigurationError(t *testing.T) {
	_, err := resolveSpec(nil, []string{"output"}, Overrides{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestResolveSpec_NoOutputsIsConfigurationError(t *testing.T) {
	_, err := resolveSpec([]string{"input_ids", "attention_mask"}, nil, Overrides{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestResolveSpec_OverridesWin(t *testing.T) {
	spec, err := resolveSpec(
		[]string{"input_ids", "attention_mask"},
		[]string{"last_hidden_state"},
		Overrides{InputIDs: "custom_ids", Mask: "custom_mask", Output: "custom_out"},
	)

	// Overrides bypass resolution entirely, even against the model's
	// reported names.
	require.NoError(t, err)
	assert.Equal(t, "custom_ids", spec.inputIDs)
	assert.Equal(t, "custom_mask", spec.mask)
	assert.Equal(t, "custom_out", spec.output)
}

func TestResolveSpec_PartialOverride(t *testing.T) {
	spec, err := resolveSpec(
		[]string{"input_ids", "attention_mask"},
		[]string{"sentence_embedding"},
		Overrides{Output: "forced"},
	)

	require.NoError(t, err)
	assert.Equal(t, "input_ids", spec.inputIDs)
	assert.Equal(t, "attention_mask", spec.mask)
	assert.Equal(t, "forced", spec.output)
}

func TestResolveName_KeywordIsCaseInsensitive(t *testing.T) {
	name, err := resolveName([]string{"Attention_Mask"}, []string{"attention_mask"}, []string{"mask"})

	require.NoError(t, err)
	assert.Equal(t, "Attention_Mask", name)
}

func TestResolveName_AllKeywordsRequired(t *testing.T) {
	// "ids" alone does not satisfy ["input","id"]; "word_input_ids" does.
	name, err := resolveName([]string{"ids", "word_input_ids"}, nil, []string{"input", "id"})

	require.NoError(t, err)
	assert.Equal(t, "word_input_ids", name)
}
