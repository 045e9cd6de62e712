package builderrors

// Group aggregates ParsedError values sharing a Signature into
// ErrorGroup values, insertion-ordered by first occurrence.
func Group(errs []ParsedError) []ErrorGroup {
	order := make([]string, 0, len(errs))
	groups := make(map[string]*ErrorGroup, len(errs))

	for _, e := range errs {
		g, ok := groups[e.Signature]
		if !ok {
			g = &ErrorGroup{
				Signature:       e.Signature,
				Code:            e.Code,
				Message:         e.Message,
				FirstOccurrence: e,
				Suggestion:      e.OptionalContext,
			}
			groups[e.Signature] = g
			order = append(order, e.Signature)
		}
		g.Count++
		if e.File != "" && !contains(g.AffectedFiles, e.File) {
			g.AffectedFiles = append(g.AffectedFiles, e.File)
		}
		if len(g.Samples) < 3 {
			g.Samples = append(g.Samples, e.Raw)
		}
		if g.Suggestion == "" && e.OptionalContext != "" {
			g.Suggestion = e.OptionalContext
		}
	}

	out := make([]ErrorGroup, 0, len(order))
	for _, sig := range order {
		out = append(out, *groups[sig])
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
