package calc

import "math"

// Remainder describes what is still needed for one ingredient row.
//
// When no ingredient in the row's unit group is over-delivered, Remaining is
// the plain target minus delivered. Once any member overshoots its target,
// the whole group is inflated by the largest overshoot ratio so proportions
// stay correct; RebalancedTarget and AdditionalNeeded then describe the row.
type Remainder struct {
	Index            int      `json:"index"`
	Unit             string   `json:"unit"`
	Target           *float64 `json:"target"`
	Delivered        float64  `json:"delivered"`
	Remaining        *float64 `json:"remaining"`
	Rebalanced       bool     `json:"rebalanced"`
	ExcessRatio      float64  `json:"excessRatio"`
	RebalancedTarget float64  `json:"rebalancedTarget"`
	AdditionalNeeded float64  `json:"additionalNeeded"`
}

// Group totals the valid rows sharing one unit string.
type Group struct {
	Unit           string  `json:"unit"`
	Rows           []int   `json:"rows"`
	BaseTotal      float64 `json:"baseTotal"`
	TargetTotal    float64 `json:"targetTotal"`
	DeliveredTotal float64 `json:"deliveredTotal"`
	ExcessRatio    float64 `json:"excessRatio"`
}

// Groups returns unit groups in order of first appearance. Units are compared
// as raw strings; no unit conversion takes place.
func Groups(st State) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for i, ing := range st.Ingredients {
		if ing.Invalid {
			continue
		}
		pos, ok := index[ing.Unit]
		if !ok {
			pos = len(groups)
			index[ing.Unit] = pos
			groups = append(groups, Group{Unit: ing.Unit, ExcessRatio: 1})
		}
		g := &groups[pos]
		g.Rows = append(g.Rows, i)
		g.BaseTotal += ing.Base
		if t := valueAt(st.Targets, i); t != nil {
			g.TargetTotal += *t
			if ratio := excessRatio(*t, deliveredAt(st, i)); ratio > g.ExcessRatio {
				g.ExcessRatio = ratio
			}
		}
		g.DeliveredTotal += deliveredAt(st, i)
	}
	for i := range groups {
		groups[i].BaseTotal = round2(groups[i].BaseTotal)
		groups[i].TargetTotal = round2(groups[i].TargetTotal)
		groups[i].DeliveredTotal = round2(groups[i].DeliveredTotal)
	}
	return groups
}

// Remainders computes the per-row remainder with unit-grouped overspend
// rebalancing. Invalid rows are omitted.
func Remainders(st State) []Remainder {
	ratios := make(map[string]float64)
	for _, g := range Groups(st) {
		ratios[g.Unit] = g.ExcessRatio
	}

	out := make([]Remainder, 0, len(st.Ingredients))
	for i, ing := range st.Ingredients {
		if ing.Invalid {
			continue
		}
		delivered := deliveredAt(st, i)
		rem := Remainder{
			Index:       i,
			Unit:        ing.Unit,
			Target:      cloneFloat(valueAt(st.Targets, i)),
			Delivered:   delivered,
			ExcessRatio: 1,
		}
		if rem.Target == nil {
			out = append(out, rem)
			continue
		}
		target := *rem.Target
		ratio := ratios[ing.Unit]
		if ratio > 1 {
			rem.Rebalanced = true
			rem.ExcessRatio = ratio
			rem.RebalancedTarget = round2(target * ratio)
			rem.AdditionalNeeded = math.Max(0, round2(rem.RebalancedTarget-delivered))
		} else {
			rem.Remaining = floatPtr(round2(target - delivered))
		}
		out = append(out, rem)
	}
	return out
}

func excessRatio(target, delivered float64) float64 {
	if target <= 0 || delivered <= target {
		return 1
	}
	return delivered / target
}

func valueAt(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

func deliveredAt(st State, i int) float64 {
	if v := valueAt(st.Delivered, i); v != nil {
		return *v
	}
	return 0
}
