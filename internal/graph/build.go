package graph

import "github.com/matilda-discovery/matilda/internal/catalog"

// Build estimates an edge between every ordered pair of distinct columns
// sharing a domain tag, using hash-intersection of the catalog's sampled
// value reservoirs as the overlap estimate. An edge is inserted only when
// the estimate is at least 1, with weight equal to the estimated number of
// shared distinct values.
func Build(cat *catalog.Catalog) *Graph {
	g := New()

	type colRef struct {
		relation string
		column   string
		domain   catalog.Domain
		hashes   map[uint64]bool
	}

	var cols []colRef
	for _, relName := range cat.Relations() {
		rel, ok := cat.Relation(relName)
		if !ok {
			continue
		}
		for _, col := range rel.Columns {
			st, ok := cat.Stats(relName, col.Name)
			if !ok {
				continue
			}
			set := make(map[uint64]bool, len(st.SampleHashes))
			for _, h := range st.SampleHashes {
				set[h] = true
			}
			cols = append(cols, colRef{relation: relName, column: col.Name, domain: col.Domain, hashes: set})
		}
	}

	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			a, b := cols[i], cols[j]
			if a.relation == b.relation && a.column == b.column {
				continue
			}
			if a.domain != b.domain || a.domain == catalog.DomainUnknown {
				continue
			}
			overlap := intersectionSize(a.hashes, b.hashes)
			if overlap == 0 {
				continue
			}
			g.AddEdge(
				Node{Relation: a.relation, Column: a.column},
				Node{Relation: b.relation, Column: b.column},
				uint64(overlap),
			)
		}
	}

	return g
}

func intersectionSize(a, b map[uint64]bool) int {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	n := 0
	for h := range small {
		if big[h] {
			n++
		}
	}
	return n
}
