package district

import "sort"

// Row is one dataset row as supplied by the offline pipeline, in source order.
type Row struct {
	Zip        string
	State      string
	District   string
	Weight     float64
	Population int64
}

// Index is the immutable authoritative table. Built once, never mutated;
// concurrent readers need no locking.
type Index struct {
	records map[string]Record
	byPop   []string
}

// NewIndex groups rows by ZIP, preserving source order within a ZIP, and
// finalizes candidate ordering and the primary flag for every record.
// Rows with an invalid ZIP key are dropped; a ZIP that ends up with zero
// candidates simply has no record.
func NewIndex(rows []Row) *Index {
	ix := &Index{records: make(map[string]Record, len(rows))}
	var order []string
	for _, r := range rows {
		z, ok := normalizeZip(r.Zip)
		if !ok {
			continue
		}
		rec, seen := ix.records[z]
		if !seen {
			rec = Record{Zip: z}
			order = append(order, z)
		}
		rec.Candidates = append(rec.Candidates, Candidate{
			State:          r.State,
			District:       r.District,
			CoverageWeight: r.Weight,
		})
		if r.Population > rec.Population {
			rec.Population = r.Population
		}
		ix.records[z] = rec
	}
	for _, z := range order {
		rec := ix.records[z]
		rec.Candidates = finalize(rec.Candidates)
		ix.records[z] = rec
	}
	ix.byPop = append(ix.byPop, order...)
	sort.SliceStable(ix.byPop, func(i, j int) bool {
		return ix.records[ix.byPop[i]].Population > ix.records[ix.byPop[j]].Population
	})
	return ix
}

// Get returns the record for a normalized ZIP key.
func (ix *Index) Get(zip string) (Record, bool) {
	rec, ok := ix.records[zip]
	if !ok || len(rec.Candidates) == 0 {
		return Record{}, false
	}
	return rec, true
}

// Len reports the number of ZIPs in the index.
func (ix *Index) Len() int { return len(ix.records) }

// TopByPopulation returns up to n ZIPs ordered by descending population,
// used to warm the hot cache when no query history is available.
func (ix *Index) TopByPopulation(n int) []string {
	if n > len(ix.byPop) {
		n = len(ix.byPop)
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, n)
	copy(out, ix.byPop[:n])
	return out
}
