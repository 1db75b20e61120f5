package session

import (
	"github.com/jmylchreest/iconform/internal/normalise"
	"github.com/jmylchreest/iconform/internal/token"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

func colourMessage(tokens []token.ColourToken) plugin.ColourAssets {
	assets := make([]plugin.ColourAsset, 0, len(tokens))
	for _, t := range tokens {
		a := plugin.ColourAsset{ID: t.ID, Name: t.Name, Group: t.Group, Type: string(t.Kind)}
		if t.Hex != "" {
			hex := t.Hex
			a.Hex = &hex
		}
		assets = append(assets, a)
	}
	return plugin.ColourAssets{Type: plugin.TypeColourAssets, Assets: assets}
}

func dimensionMessage(tokens []token.DimensionToken) plugin.DimensionVariables {
	vars := make([]plugin.DimensionVariable, 0, len(tokens))
	for _, t := range tokens {
		var value any = t.Value.Number
		if t.Value.Alias {
			value = plugin.AliasValue
		}
		vars = append(vars, plugin.DimensionVariable{ID: t.ID, Name: t.Name, Group: t.Group, Value: value})
	}
	return plugin.DimensionVariables{Type: plugin.TypeDimensionVariables, Variables: vars}
}

func resultMessage(r normalise.Report) plugin.StandardiseResult {
	outcomes := make([]plugin.Outcome, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out := plugin.Outcome{ID: o.ID, Name: o.Name, State: string(o.State), Reason: o.Reason}
		for _, s := range o.Steps {
			out.Steps = append(out.Steps, plugin.StepResult{Step: string(s.Step), Status: string(s.Status), Reason: s.Reason})
		}
		outcomes = append(outcomes, out)
	}
	return plugin.StandardiseResult{Type: plugin.TypeStandardiseResult, Count: r.Normalised(), Outcomes: outcomes}
}
