// Package ops is the small no-SQL operator surface (spec §1: "a small
// library surface for... composing a few operators (grouping, aggregation,
// pivot, filter, sort) without SQL"). Every helper here is a thin entry
// point: GroupBy walks a DataStore directly the way the executor's own row
// scans do, and Sum/Avg/Filter/Sort/PivotTable build and run one SQL
// statement through an *engine.Engine rather than reimplementing
// aggregation, filtering, ordering, or reshape logic a second time.
package ops

import (
	"strings"

	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/value"
)

// GroupResult is one group: its key tuple (one scalar per grouping column,
// in column order) and the indices of every source row that produced it.
type GroupResult struct {
	Key        []value.Value
	RowIndices []int
}

// GroupBy partitions every row of ds by the values of colNames, in
// first-seen order. Grounded on original_source/src/grouping.rs's group_by:
// it joins each row's per-column rendering into one comparable key to find
// or create a bucket (a []value.Value key isn't comparable, so Go needs the
// join Rust's HashMap<Vec<String>, _> gets for free), but returns a
// value.Value key tuple rather than the joined string.
func GroupBy(ds *storage.DataStore, colNames []string) ([]GroupResult, error) {
	type bucket struct {
		key     []string
		indices []int
	}
	order := make([]string, 0)
	buckets := make(map[string]*bucket)

	for row := 0; row < ds.RowCount(); row++ {
		keyParts := make([]string, len(colNames))
		for i, name := range colNames {
			v, err := ds.GetValue(row, name)
			if err != nil {
				return nil, err
			}
			keyParts[i] = v.String()
		}
		joined := strings.Join(keyParts, "\x1f")
		b, ok := buckets[joined]
		if !ok {
			b = &bucket{key: keyParts}
			buckets[joined] = b
			order = append(order, joined)
		}
		b.indices = append(b.indices, row)
	}

	results := make([]GroupResult, len(order))
	for i, joined := range order {
		b := buckets[joined]
		key := make([]value.Value, len(b.key))
		for j, s := range b.key {
			key[j] = value.NewString(s)
		}
		results[i] = GroupResult{Key: key, RowIndices: b.indices}
	}
	return results, nil
}
