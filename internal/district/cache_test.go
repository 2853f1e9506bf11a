package district

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func rec(zip string) Record {
	return Record{Zip: zip, Candidates: []Candidate{{State: "XX", District: "1", CoverageWeight: 1, Primary: true}}}
}

func TestStaticTierSealStopsWrites(t *testing.T) {
	hot := newStaticTier()
	hot.put("48221", rec("48221"))
	hot.seal()
	hot.put("90210", rec("90210"))

	require.Equal(t, 1, hot.size())
	_, ok := hot.get("48221")
	require.True(t, ok)
	_, ok = hot.get("90210")
	require.False(t, ok)
}

func TestLRUTierEvictsLeastRecentlyAccessed(t *testing.T) {
	rt, err := newLRUTier(2)
	require.NoError(t, err)

	rt.put("11111", rec("11111"))
	rt.put("22222", rec("22222"))
	_, ok := rt.get("11111") // freshen
	require.True(t, ok)
	rt.put("33333", rec("33333"))

	require.Equal(t, 2, rt.size())
	_, ok = rt.get("11111")
	require.True(t, ok)
	_, ok = rt.get("22222")
	require.False(t, ok, "least recently accessed entry must be the victim")
	_, ok = rt.get("33333")
	require.True(t, ok)
}

func TestLRUTierOverwriteSameKey(t *testing.T) {
	rt, err := newLRUTier(2)
	require.NoError(t, err)
	rt.put("11111", rec("11111"))
	rt.put("11111", rec("11111"))
	require.Equal(t, 1, rt.size())
}
