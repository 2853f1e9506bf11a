package api

import "district-api/internal/district"

// queryResult is the outward serialization model for one lookup. The shape
// is stable for every input: an unresolvable ZIP yields empty fields and an
// empty candidate list, never an error payload.
type queryResult struct {
	Zip           string               `json:"zip"`
	State         string               `json:"state"`
	District      string               `json:"district"`
	MultiDistrict bool                 `json:"multi_district"`
	Candidates    []district.Candidate `json:"candidates"`
}
