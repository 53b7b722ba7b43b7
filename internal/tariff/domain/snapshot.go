package domain

import (
	"sort"

	"github.com/bwmarrin/snowflake"
)

// Snapshot is an immutable view of the tariff catalog taken once per
// quote request. Evaluation never reads the database after the snapshot
// is built, so concurrent catalog edits are not observed mid-quote.
type Snapshot struct {
	Variables       map[string]Variable
	Tables          map[string]FactorTable
	Rules           map[snowflake.ID][]Rule
	CoverageTariffs map[snowflake.ID][]CoverageTariff
	Deductibles     map[snowflake.ID][]DeductibleOption
}

// NewSnapshot indexes the loaded rows and fixes every evaluation order:
// rules by (type order, priority desc, id asc), conditions by
// (group, order, id), actions by (order, id), table ranges by
// (priority desc, id asc). Inactive rows are dropped here, not later.
func NewSnapshot(
	variables []Variable,
	tables []FactorTable,
	rules []Rule,
	coverageTariffs []CoverageTariff,
	deductibles []DeductibleOption,
) *Snapshot {
	s := &Snapshot{
		Variables:       make(map[string]Variable, len(variables)),
		Tables:          make(map[string]FactorTable, len(tables)),
		Rules:           make(map[snowflake.ID][]Rule),
		CoverageTariffs: make(map[snowflake.ID][]CoverageTariff),
		Deductibles:     make(map[snowflake.ID][]DeductibleOption),
	}

	for _, v := range variables {
		if !v.Active {
			continue
		}
		s.Variables[v.Code] = v
	}

	for _, t := range tables {
		if !t.Active {
			continue
		}
		ranges := make([]FactorTableRange, 0, len(t.Ranges))
		for _, r := range t.Ranges {
			if r.Active {
				ranges = append(ranges, r)
			}
		}
		sort.SliceStable(ranges, func(i, j int) bool {
			if ranges[i].Priority != ranges[j].Priority {
				return ranges[i].Priority > ranges[j].Priority
			}
			return ranges[i].ID < ranges[j].ID
		})
		t.Ranges = ranges
		s.Tables[t.Name] = t
	}

	for _, r := range rules {
		if !r.Active {
			continue
		}
		sortConditions(r.Conditions)
		sortActions(r.Actions)
		s.Rules[r.ProductID] = append(s.Rules[r.ProductID], r)
	}
	for productID := range s.Rules {
		productRules := s.Rules[productID]
		sort.SliceStable(productRules, func(i, j int) bool {
			oi, oj := productRules[i].Type.EvalOrder(), productRules[j].Type.EvalOrder()
			if oi != oj {
				return oi < oj
			}
			if productRules[i].Priority != productRules[j].Priority {
				return productRules[i].Priority > productRules[j].Priority
			}
			return productRules[i].ID < productRules[j].ID
		})
		s.Rules[productID] = productRules
	}

	for _, ct := range coverageTariffs {
		if !ct.Active {
			continue
		}
		s.CoverageTariffs[ct.ProductID] = append(s.CoverageTariffs[ct.ProductID], ct)
	}
	for productID := range s.CoverageTariffs {
		tariffs := s.CoverageTariffs[productID]
		sort.SliceStable(tariffs, func(i, j int) bool { return tariffs[i].ID < tariffs[j].ID })
		s.CoverageTariffs[productID] = tariffs
	}

	for _, d := range deductibles {
		if !d.Active {
			continue
		}
		s.Deductibles[d.ProductID] = append(s.Deductibles[d.ProductID], d)
	}
	for productID := range s.Deductibles {
		opts := s.Deductibles[productID]
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })
		s.Deductibles[productID] = opts
	}

	return s
}

func sortConditions(conditions []Condition) {
	sort.SliceStable(conditions, func(i, j int) bool {
		if conditions[i].Group != conditions[j].Group {
			return conditions[i].Group < conditions[j].Group
		}
		if conditions[i].Order != conditions[j].Order {
			return conditions[i].Order < conditions[j].Order
		}
		return conditions[i].ID < conditions[j].ID
	})
}

func sortActions(actions []Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Order != actions[j].Order {
			return actions[i].Order < actions[j].Order
		}
		return actions[i].ID < actions[j].ID
	})
}
