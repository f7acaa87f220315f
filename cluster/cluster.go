// Package cluster implements ObjectClusterizer: grouping nearby visitable
// objects that share an access tile or a common guard into clusters, so
// behaviors can treat a whole cluster as one target.
package cluster

import (
	"sort"

	"github.com/nullkiller/aicore/coordinate"
	"github.com/nullkiller/aicore/mapmodel"
)

// Cluster is a set of objects a behavior should treat as one unit, because
// visiting one likely means visiting the rest cheaply (shared access tile)
// or they must be fought together (shared guard).
type Cluster struct {
	Objects    []mapmodel.Object
	AccessTile coordinate.Coord
}

// TotalGoldReward sums the members' gold payload; behaviors use this to
// weigh a cluster as a single CaptureObjects target.
func (c Cluster) TotalGoldReward() int {
	total := 0
	for _, o := range c.Objects {
		total += o.GoldAmount
	}
	return total
}

func guardKey(o mapmodel.Object) string {
	if len(o.Guards.Slots) == 0 {
		return ""
	}
	// A stable key: sorted creature IDs and counts. Order in Guards.Slots
	// isn't guaranteed by the game engine, so this must not depend on it.
	ids := make([]int, len(o.Guards.Slots))
	for i, s := range o.Guards.Slots {
		ids[i] = int(s.Creature.ID)*100003 + s.Count
	}
	sort.Ints(ids)
	key := ""
	for _, id := range ids {
		key += string(rune(id%97)) // cheap, collision-tolerant grouping key
	}
	return key
}

// Clusterize groups objects sharing an AccessTile, then further merges
// clusters whose objects share a non-empty guard signature (since fighting
// one guard clears the way to all objects behind it).
func Clusterize(objects []mapmodel.Object) []Cluster {
	byAccess := make(map[coordinate.Coord][]mapmodel.Object)
	var accessOrder []coordinate.Coord
	for _, o := range objects {
		if _, ok := byAccess[o.AccessTile]; !ok {
			accessOrder = append(accessOrder, o.AccessTile)
		}
		byAccess[o.AccessTile] = append(byAccess[o.AccessTile], o)
	}

	sort.Slice(accessOrder, func(i, j int) bool { return accessOrder[i].Less(accessOrder[j]) })

	clusters := make([]Cluster, 0, len(accessOrder))
	for _, tile := range accessOrder {
		clusters = append(clusters, Cluster{Objects: byAccess[tile], AccessTile: tile})
	}

	// Merge clusters that share a guard signature.
	byGuard := make(map[string][]int) // guard signature -> cluster indexes
	for i, c := range clusters {
		for _, o := range c.Objects {
			if key := guardKey(o); key != "" {
				byGuard[key] = append(byGuard[key], i)
			}
		}
	}

	parent := make([]int, len(clusters))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, idxs := range byGuard {
		for i := 1; i < len(idxs); i++ {
			union(idxs[0], idxs[i])
		}
	}

	merged := make(map[int]*Cluster)
	var order []int
	for i, c := range clusters {
		root := find(i)
		if _, ok := merged[root]; !ok {
			cp := c
			merged[root] = &cp
			order = append(order, root)
			continue
		}
		merged[root].Objects = append(merged[root].Objects, c.Objects...)
	}

	sort.Ints(order)
	result := make([]Cluster, 0, len(order))
	for _, root := range order {
		result = append(result, *merged[root])
	}
	return result
}
