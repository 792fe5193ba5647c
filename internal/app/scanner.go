package app

import "strings"

// Protocol markers embedded in model output. Payloads may contain arbitrary
// code (including raw '<'), so extraction is marker scanning, never XML.
const (
	statusOpen   = "<status_update>"
	statusClose  = "</status_update>"
	memoryOpen   = "<memory_update>"
	memoryClose  = "</memory_update>"
	changesOpen  = "<file_changes>"
	changesClose = "</file_changes>"
)

// ScanResult is what one pass over the stream buffer yields.
type ScanResult struct {
	// Visible is the buffer with all protocol regions removed: complete
	// status/memory pairs, the change container, and any unterminated tail
	// that has started a tag but not finished it.
	Visible string
	// Status is the payload of the most recently completed status_update
	// pair, or "" when none has completed yet.
	Status string
	// Memory is the payload of the completed memory_update pair, if any.
	Memory    string
	HasMemory bool
}

var openMarkers = []string{statusOpen, memoryOpen, changesOpen}

// ScanStream extracts protocol regions from the cumulative stream buffer.
//
// It is called on every chunk arrival with the full buffer to date. It is a
// pure function: the same buffer always yields the same result, so re-scans
// are harmless. Unterminated tags are treated as not-yet-visible, never as
// errors; the unfinished region is simply withheld from Visible so partial
// markup is never flashed on screen.
func ScanStream(buf string) ScanResult {
	var res ScanResult
	var visible strings.Builder

	rest := buf
	for {
		idx, marker := nextOpenMarker(rest)
		if idx < 0 {
			// No full open marker remains. A trailing fragment like "<stat"
			// could still be the start of one cut mid-chunk; withhold it.
			cut := partialMarkerStart(rest)
			visible.WriteString(rest[:cut])
			break
		}

		visible.WriteString(rest[:idx])
		body := rest[idx+len(marker):]

		var closer string
		switch marker {
		case statusOpen:
			closer = statusClose
		case memoryOpen:
			closer = memoryClose
		default:
			closer = changesClose
		}

		end := strings.Index(body, closer)
		if end < 0 {
			// Tag opened but not yet closed: hide the remainder until the
			// closing marker streams in.
			break
		}

		payload := body[:end]
		switch marker {
		case statusOpen:
			res.Status = strings.TrimSpace(payload)
		case memoryOpen:
			res.Memory = trimBlockPayload(payload)
			res.HasMemory = true
		case changesOpen:
			// The change container is parsed after the stream completes;
			// it is never rendered raw.
		}
		rest = body[end+len(closer):]
	}

	res.Visible = visible.String()
	return res
}

// nextOpenMarker finds the earliest open marker in s, returning its index and
// which marker matched, or (-1, "").
func nextOpenMarker(s string) (int, string) {
	best := -1
	var bestMarker string
	for _, m := range openMarkers {
		if i := strings.Index(s, m); i >= 0 && (best < 0 || i < best) {
			best = i
			bestMarker = m
		}
	}
	return best, bestMarker
}

// partialMarkerStart returns the length of the prefix of s that is safe to
// show. If the tail of s is a proper prefix of an open marker (the buffer was
// cut mid-marker), the tail is withheld.
func partialMarkerStart(s string) int {
	for i := len(s) - 1; i >= 0 && len(s)-i < len(changesClose); i-- {
		if s[i] != '<' {
			continue
		}
		tail := s[i:]
		for _, m := range openMarkers {
			if len(tail) < len(m) && strings.HasPrefix(m, tail) {
				return i
			}
		}
	}
	return len(s)
}

// trimBlockPayload drops the single newline a model typically emits right
// after an opening marker and right before a closing one, keeping interior
// whitespace intact.
func trimBlockPayload(s string) string {
	s = strings.TrimPrefix(s, "\r\n")
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}
