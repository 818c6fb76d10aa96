package local

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/logger"
)

// ioSpec holds the resolved tensor names for the model's input-ids,
// attention-mask and output tensors. It is resolved once at engine
// construction and immutable afterwards; no lookup happens per call.
type ioSpec struct {
	inputIDs string
	mask     string
	output   string
}

// Conventional tensor names checked before falling back to keyword
// matching. These cover the common sentence-transformer exports.
var (
	inputIDNames = []string{"input_ids"}
	maskNames    = []string{"attention_mask"}
	outputNames  = []string{"last_hidden_state", "sentence_embedding", "output"}
)

// resolveSpec resolves the three required tensor names against the
// model's reported inputs and outputs. Explicit overrides win; absent
// an override, resolution tries an exact conventional match, then a
// case-insensitive keyword substring match, then the first name in
// sorted order. A tensor with no candidate at all is a configuration
// error and the engine is unusable.
func resolveSpec(inputs, outputs []string, overrides Overrides) (ioSpec, error) {
	spec := ioSpec{
		inputIDs: overrides.InputIDs,
		mask:     overrides.Mask,
		output:   overrides.Output,
	}

	var err error
	if spec.inputIDs == "" {
		spec.inputIDs, err = resolveName(inputs, inputIDNames, []string{"input", "id"})
		if err != nil {
			return ioSpec{}, fmt.Errorf("%w: input ids tensor: %w", domain.ErrConfiguration, err)
		}
	}
	if spec.mask == "" {
		spec.mask, err = resolveName(inputs, maskNames, []string{"mask"})
		if err != nil {
			return ioSpec{}, fmt.Errorf("%w: attention mask tensor: %w", domain.ErrConfiguration, err)
		}
	}
	if spec.output == "" {
		spec.output, err = resolveName(outputs, outputNames, []string{"output"})
		if err != nil {
			return ioSpec{}, fmt.Errorf("%w: output tensor: %w", domain.ErrConfiguration, err)
		}
	}

	logger.Debug("Resolved tensors: ids=%q mask=%q output=%q", spec.inputIDs, spec.mask, spec.output)
	return spec, nil
}

// resolveName picks one name from available by priority: exact
// conventional match, then case-insensitive match on all keywords,
// then the first available name in sorted order.
func resolveName(available, conventional, keywords []string) (string, error) {
	if len(available) == 0 {
		return "", fmt.Errorf("no candidate among model tensors")
	}

	for _, want := range conventional {
		for _, name := range available {
			if name == want {
				return name, nil
			}
		}
	}

	for _, name := range available {
		lower := strings.ToLower(name)
		matched := true
		for _, kw := range keywords {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}
		if matched {
			return name, nil
		}
	}

	sorted := make([]string, len(available))
	copy(sorted, available)
	sort.Strings(sorted)
	logger.Warn("No conventional or keyword tensor match, falling back to %q", sorted[0])
	return sorted[0], nil
}
