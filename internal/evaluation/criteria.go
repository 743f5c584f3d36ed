package evaluation

import "sort"

// CriterionRef is what the weighted average needs to know about a criterion.
type CriterionRef struct {
	TemplateID string
	Weight     float64
	Label      string
}

// CriterionIndex maps criterion id to its template, weight and label.
type CriterionIndex map[string]CriterionRef

// BuildCriterionIndex flattens per-template criteria lists. Templates are
// visited in id order, so an id listed under two templates keeps the first.
func BuildCriterionIndex(byTemplate map[string][]RubricCriterion) CriterionIndex {
	n := 0
	tids := make([]string, 0, len(byTemplate))
	for tid, list := range byTemplate {
		tids = append(tids, tid)
		n += len(list)
	}
	sort.Strings(tids)

	idx := make(CriterionIndex, n)
	for _, tid := range tids {
		for _, c := range byTemplate[tid] {
			if c.ID == "" {
				continue
			}
			if _, dup := idx[c.ID]; dup {
				continue
			}
			owner := c.TemplateID
			if owner == "" {
				owner = tid
			}
			idx[c.ID] = CriterionRef{
				TemplateID: owner,
				Weight:     ParseWeight(c.Weight).Float64(),
				Label:      c.Criterion,
			}
		}
	}
	return idx
}

func (idx CriterionIndex) Lookup(criterionID string) (CriterionRef, bool) {
	ref, ok := idx[criterionID]
	return ref, ok
}
