// Package nav routes an agent across a partially known, changing grid.
package nav

import (
	"container/heap"

	"github.com/boshu2/lattice-swarm/internal/grid"
)

const (
	// AvoidPenalty is the extra cost of stepping onto an avoided cell.
	AvoidPenalty = 10.0
	// DefaultMaxNodes bounds a search. Unknown cells are passable, so an
	// unreachable goal would otherwise expand forever.
	DefaultMaxNodes = 20000
)

// Planner runs bounded A* searches.
type Planner struct {
	// MaxNodes caps expanded cells; zero means DefaultMaxNodes.
	MaxNodes int
}

// AStar routes from start to goal with the default node budget.
func AStar(start, goal grid.Loc, known grid.LocMap, blocked, avoid grid.LocSet) (Path, bool) {
	return Planner{}.Route(start, goal, known, blocked, avoid)
}

type pathNode struct {
	loc   grid.Loc
	g     float64
	f     float64
	tie   float64
	seq   int
	index int
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.tie != b.tie {
		return a.tie < b.tie
	}
	return a.seq < b.seq
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// Route searches backward from goal to start so that following came-from
// links from start yields the path already ordered near to far. Steps are
// 8-connected with unit cost. A cell is expandable if it is known passable or
// unknown and not blocked; avoided cells cost AvoidPenalty extra. The start
// cell is always enterable since the agent stands on it.
//
// The returned path excludes start and ends at goal. ok is false when no
// route exists within the node budget.
func (p Planner) Route(start, goal grid.Loc, known grid.LocMap, blocked, avoid grid.LocSet) (Path, bool) {
	budget := p.MaxNodes
	if budget <= 0 {
		budget = DefaultMaxNodes
	}

	open := &pathQueue{}
	inOpen := map[grid.Loc]*pathNode{}
	gScore := map[grid.Loc]float64{goal: 0}
	cameFrom := map[grid.Loc]grid.Loc{}
	closed := map[grid.Loc]struct{}{}
	seq := 0

	push := func(loc grid.Loc, g float64) {
		n := &pathNode{
			loc: loc,
			g:   g,
			f:   g + float64(grid.Chebyshev(loc, start)),
			tie: grid.Distance(loc, start),
			seq: seq,
		}
		seq++
		inOpen[loc] = n
		heap.Push(open, n)
	}
	push(goal, 0)

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		delete(inOpen, current.loc)
		if current.loc == start {
			return reconstruct(cameFrom, start), true
		}
		closed[current.loc] = struct{}{}
		if len(closed) > budget {
			return nil, false
		}

		for _, n := range current.loc.Neighbors() {
			if _, done := closed[n]; done {
				continue
			}
			if n != start && !enterable(n, known, blocked) {
				continue
			}
			score := current.g + 1
			if n != start && contains(avoid, n) {
				score += AvoidPenalty
			}
			if prev, ok := gScore[n]; ok && score >= prev {
				continue
			}
			gScore[n] = score
			cameFrom[n] = current.loc
			if node, ok := inOpen[n]; ok {
				node.f += score - node.g
				node.g = score
				heap.Fix(open, node.index)
				continue
			}
			push(n, score)
		}
	}
	return nil, false
}

func reconstruct(cameFrom map[grid.Loc]grid.Loc, start grid.Loc) Path {
	var path Path
	current := start
	for {
		next, ok := cameFrom[current]
		if !ok {
			return path
		}
		path = append(path, next)
		current = next
	}
}

func enterable(l grid.Loc, known grid.LocMap, blocked grid.LocSet) bool {
	if contains(blocked, l) {
		return false
	}
	if known == nil {
		return true
	}
	passable, ok := known.Passable(l)
	return !ok || passable
}

func contains(s grid.LocSet, l grid.Loc) bool {
	return s != nil && s.Has(l)
}
