package strategy

import (
	"fmt"

	"github.com/newthinker/tradelab/internal/core"
)

// FilterSpec enables one filter with its options
type FilterSpec struct {
	Kind   string `yaml:"kind" mapstructure:"kind"`
	Params Params `yaml:"params" mapstructure:"params"`
}

// Definition is the immutable configuration of one named strategy:
// a rule, its options and the filters ANDed onto its trigger.
type Definition struct {
	Name        string       `yaml:"name" mapstructure:"name"`
	Description string       `yaml:"description" mapstructure:"description"`
	Rule        string       `yaml:"rule" mapstructure:"rule"`
	Required    []core.Field `yaml:"required" mapstructure:"required"`
	Lookback    int          `yaml:"lookback" mapstructure:"lookback"`
	Params      Params       `yaml:"params" mapstructure:"params"`
	Filters     []FilterSpec `yaml:"filters" mapstructure:"filters"`

	// ExitOnBreak emits sell on the bar where the final buy condition
	// stops holding. Rule sell legs are ignored.
	ExitOnBreak bool `yaml:"exit_on_break" mapstructure:"exit_on_break"`

	// Replace allows a loaded definition to override a registered one
	Replace bool `yaml:"replace" mapstructure:"replace"`
}

// Clone returns a deep copy
func (d Definition) Clone() Definition {
	out := d
	out.Required = append([]core.Field(nil), d.Required...)
	out.Params = d.Params.Clone()
	out.Filters = make([]FilterSpec, len(d.Filters))
	for i, f := range d.Filters {
		out.Filters[i] = FilterSpec{Kind: f.Kind, Params: f.Params.Clone()}
	}
	return out
}

// Lookahead reports whether any enabled filter reads future bars
func (d Definition) Lookahead() bool {
	for _, f := range d.Filters {
		if f.Kind == FilterNextBar {
			return true
		}
	}
	return false
}

// FilterKinds lists the enabled filter kinds in order
func (d Definition) FilterKinds() []string {
	out := make([]string, len(d.Filters))
	for i, f := range d.Filters {
		out[i] = f.Kind
	}
	return out
}

// Validate checks the definition is complete and names known rules and filters
func (d Definition) Validate() error {
	if d.Name == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy name is required"))
	}
	if _, ok := rules[d.Rule]; !ok {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy %s: unknown rule %q", d.Name, d.Rule))
	}
	if d.Lookback < 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy %s: lookback must be positive", d.Name))
	}
	for _, f := range d.Required {
		if !isKnownField(f) {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy %s: unknown field %q", d.Name, f))
		}
	}
	if err := d.Params.validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy %s: %w", d.Name, err))
	}
	for _, f := range d.Filters {
		if _, ok := filterFactories[f.Kind]; !ok {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy %s: unknown filter %q", d.Name, f.Kind))
		}
		if err := f.Params.validate(); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy %s: filter %s: %w", d.Name, f.Kind, err))
		}
		if _, err := NewFilter(f); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("strategy %s: %w", d.Name, err))
		}
	}
	return nil
}

// ruleFields are the bar columns each rule reads besides close
var ruleFields = map[string][]core.Field{
	RuleBreakout:  {core.FieldHigh, core.FieldLow},
	RuleROCVolume: {core.FieldVolume},
	RuleGap:       {core.FieldOpen},
}

// RequiredFields is the declared Required list extended with timestamp,
// close and every column the rule and filters read, in canonical order.
func (d Definition) RequiredFields() []core.Field {
	need := core.NewFieldSet(d.Required...)
	need[core.FieldTimestamp] = struct{}{}
	need[core.FieldClose] = struct{}{}
	add := func(fields []core.Field) {
		for _, f := range fields {
			need[f] = struct{}{}
		}
	}
	add(ruleFields[d.Rule])
	if mode, ok := d.Params["band_mode"].(string); ok && d.Rule == RuleBollinger && mode != BandFixed {
		add([]core.Field{core.FieldHigh, core.FieldLow})
	}
	for _, f := range d.Filters {
		add(filterFields[f.Kind])
	}

	out := make([]core.Field, 0, len(need))
	for _, f := range core.AllFields {
		if need.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func isKnownField(f core.Field) bool {
	for _, known := range core.AllFields {
		if f == known {
			return true
		}
	}
	return false
}
