package viz

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/jengzang/salesmap-backend-go/internal/models"
)

// Identity fingerprints metric arrays. Two fetches returning the same rows
// share an identity; any change in names, values or grouping produces a new one.
func Identity(sets ...[]models.AggregatedMetric) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, set := range sets {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(set)))
		d.Write(buf[:])
		for _, m := range set {
			d.WriteString(m.Name)
			d.Write([]byte{0})
			d.WriteString(m.GroupKey)
			d.Write([]byte{0})
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(m.Value))
			d.Write(buf[:])
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(m.Quantity))
			d.Write(buf[:])
		}
	}
	return d.Sum64()
}

// NameIdentity fingerprints an ordered list of category names
func NameIdentity(names []string) uint64 {
	d := xxhash.New()
	for _, n := range names {
		d.WriteString(n)
		d.Write([]byte{0})
	}
	return d.Sum64()
}

// RowIdentity fingerprints a generic chart dataset, keys in sorted order
func RowIdentity(rows []Row) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(rows)))
	d.Write(buf[:])
	keys := make([]string, 0, 8)
	for _, r := range rows {
		keys = keys[:0]
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(d, "%s=%T:%v", k, r[k], r[k])
			d.Write([]byte{0})
		}
		d.Write([]byte{1})
	}
	return d.Sum64()
}

// scopeIdentity extends a dataset identity with the view scope over it
func scopeIdentity(data uint64, scope ...string) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], data)
	d.Write(buf[:])
	for _, s := range scope {
		d.WriteString(s)
		d.Write([]byte{0})
	}
	return d.Sum64()
}
