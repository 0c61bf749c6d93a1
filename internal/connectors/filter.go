// Package connectors implements operation filtering and deduplication,
// schema generation, the process-wide tool registry and schema cache, the
// lifecycle coordinator, and the dynamic-invoke translator (spec.md
// §4.C-G).
package connectors

import "strings"

// FilterAndDeduplicate drops internal/trigger/webhook-management
// operations and collapses operation families to their highest revision,
// preserving the original survivor order (spec.md §4.C).
func FilterAndDeduplicate(ops []ParsedOperation) []ParsedOperation {
	var survivors []ParsedOperation
	for _, op := range ops {
		if op.Visibility == "internal" {
			continue
		}
		if op.IsTrigger {
			continue
		}
		if strings.Contains(op.Path, "$subscriptions") {
			continue
		}
		survivors = append(survivors, op)
	}
	return deduplicateFamilies(survivors)
}

// deduplicateFamilies keeps, for every x-ms-api-annotation family, only the
// member with the highest revision (ties keep the first seen). Operations
// without a family survive unless deprecated.
func deduplicateFamilies(ops []ParsedOperation) []ParsedOperation {
	bestIndexByFamily := map[string]int{}
	keep := make([]bool, len(ops))

	for i, op := range ops {
		if op.APIAnnotation == nil || op.APIAnnotation.Family == "" {
			keep[i] = !op.Deprecated
			continue
		}
		family := op.APIAnnotation.Family
		bestIdx, seen := bestIndexByFamily[family]
		if !seen {
			bestIndexByFamily[family] = i
			continue
		}
		if op.APIAnnotation.Revision > ops[bestIdx].APIAnnotation.Revision {
			bestIndexByFamily[family] = i
		}
	}
	for _, idx := range bestIndexByFamily {
		keep[idx] = true
	}

	var out []ParsedOperation
	for i, op := range ops {
		if keep[i] {
			out = append(out, op)
		}
	}
	return out
}
