package aggregation

// mostFrequentName returns the most frequent name string in the given order,
// with ties broken by first occurrence. Pure function; the Growthflow
// aggregator uses it to pick the canonical display name for an email group.
func mostFrequentName(names []string) string {
	if len(names) == 0 {
		return ""
	}

	counts := make(map[string]int, len(names))
	firstSeen := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := firstSeen[name]; !ok {
			firstSeen[name] = i
		}
		counts[name]++
	}

	best := names[0]
	for name, count := range counts {
		if count > counts[best] || (count == counts[best] && firstSeen[name] < firstSeen[best]) {
			best = name
		}
	}
	return best
}
