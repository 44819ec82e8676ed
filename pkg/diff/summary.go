package diff

// Summary counts differences by type.
type Summary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// ComparisonResult is the outcome of comparing two resources. Left and Right hold the
// cleaned snapshots the differences were computed on.
type ComparisonResult struct {
	LeftLabel   string         `json:"leftLabel"`
	RightLabel  string         `json:"rightLabel"`
	Left        map[string]any `json:"left,omitempty"`
	Right       map[string]any `json:"right,omitempty"`
	Differences []Difference   `json:"differences"`
	Summary     Summary        `json:"summary"`
}

// Identical is true when no difference was found.
func (r *ComparisonResult) Identical() bool {
	return r.Summary.Total == 0
}

func GenerateSummary(diffs []Difference) Summary {
	s := Summary{Total: len(diffs)}
	for _, d := range diffs {
		switch d.Type {
		case DifferenceAdded:
			s.Added++
		case DifferenceRemoved:
			s.Removed++
		case DifferenceModified:
			s.Modified++
		}
	}
	return s
}

// Compare cleans both resources and diffs them with default settings.
func Compare(left, right map[string]any, leftLabel, rightLabel string) *ComparisonResult {
	return defaultEngine.Compare(left, right, leftLabel, rightLabel)
}

// Compare cleans both resources and diffs them. A nil side stands for a missing
// resource: the other side is then reported as a single added or removed difference.
func (e *Engine) Compare(left, right map[string]any, leftLabel, rightLabel string) *ComparisonResult {
	cleanLeft := e.CleanResource(left)
	cleanRight := e.CleanResource(right)
	diffs := e.FindDifferences(cleanLeft, cleanRight)
	res := &ComparisonResult{
		LeftLabel:   leftLabel,
		RightLabel:  rightLabel,
		Left:        cleanLeft,
		Right:       cleanRight,
		Differences: diffs,
		Summary:     GenerateSummary(diffs),
	}
	e.opts.log.V(1).Info("Compared resources", "left", leftLabel, "right", rightLabel,
		"added", res.Summary.Added, "removed", res.Summary.Removed, "modified", res.Summary.Modified)
	return res
}
