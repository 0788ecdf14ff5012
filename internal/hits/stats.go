package hits

// PairStat is a measurement taken on both the query and the hit side.
type PairStat struct {
	Query float64 `json:"query"`
	Hit   float64 `json:"hit"`
}

// Add returns the component-wise sum of two pairs.
func (p PairStat) Add(o PairStat) PairStat {
	return PairStat{Query: p.Query + o.Query, Hit: p.Hit + o.Hit}
}

// FragmentStats holds the per-fragment measurements.
type FragmentStats struct {
	Length       PairStat `json:"length"`
	Completeness PairStat `json:"completeness"`
}

// Stats is the aggregate alignment quality of a hit.
type Stats struct {
	Gaps         int      `json:"gaps"`
	Identical    int      `json:"identical"`
	GapCounts    PairStat `json:"gap_counts"`
	Length       PairStat `json:"length"`
	Completeness PairStat `json:"completeness"`
}

// SumStats builds hit statistics from its fragments. Lengths and
// completeness are summed; identical and gap counts come from the whole
// alignment.
func SumStats(fragments []FragmentStats, identical int, gaps PairStat) Stats {
	s := Stats{
		Identical: identical,
		GapCounts: gaps,
		Gaps:      int(gaps.Query + gaps.Hit),
	}
	for _, f := range fragments {
		s.Length = s.Length.Add(f.Length)
		s.Completeness = s.Completeness.Add(f.Completeness)
	}
	return s
}

// Identity is the fraction of aligned genomic bases that are identical.
func (s Stats) Identity() float64 {
	if s.Length.Hit <= 0 {
		return 0
	}
	return float64(s.Identical) / s.Length.Hit
}
