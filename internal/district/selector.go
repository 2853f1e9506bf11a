package district

import (
	"sort"
	"strconv"
)

// atLargeRank sorts the at-large sentinel ("00" or any non-numeric district
// code) after every numbered district.
const atLargeRank = 1 << 30

func districtRank(d string) int {
	if n, err := strconv.Atoi(d); err == nil && n > 0 {
		return n
	}
	return atLargeRank
}

// finalize orders candidates by descending coverage weight, then ascending
// district number, keeping dataset order on full ties, and flags exactly one
// primary: the first candidate after ordering. Run once at index build so
// lookups return pre-disambiguated records.
func finalize(cands []Candidate) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].CoverageWeight != cands[j].CoverageWeight {
			return cands[i].CoverageWeight > cands[j].CoverageWeight
		}
		return districtRank(cands[i].District) < districtRank(cands[j].District)
	})
	for i := range cands {
		cands[i].Primary = i == 0
	}
	return cands
}
