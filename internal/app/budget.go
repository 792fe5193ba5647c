package app

// TrimToBudget prunes an ordered conversation log to a character budget
// before it is sent outward. A log that already fits is returned as-is.
// Otherwise entries are accumulated newest-first while the running total
// stays within budget, and the very first entry (the session anchor) is then
// force-included even if that exceeds the budget slightly. Order is
// preserved. Pure function: no hidden state, no mutation of the input.
func TrimToBudget(entries []Entry, budget int) []Entry {
	total := 0
	for _, e := range entries {
		total += entryChars(e)
	}
	if total <= budget || len(entries) <= 1 {
		return entries
	}

	running := 0
	cut := len(entries)
	for i := len(entries) - 1; i >= 1; i-- {
		c := entryChars(entries[i])
		if running+c > budget {
			break
		}
		running += c
		cut = i
	}

	out := make([]Entry, 0, len(entries)-cut+1)
	out = append(out, entries[0])
	out = append(out, entries[cut:]...)
	return out
}

// entryChars counts an entry's visible characters: content plus any warning
// text, both of which travel with the entry when the log is sent outward.
func entryChars(e Entry) int {
	return len(e.Text) + len(e.Warning)
}
