package search

import "sort"

// frontier is one side of the bidirectional search: the pages reached at
// the current depth plus every page reached so far with its parents
type frontier struct {
	current []int
	parents map[int][]int // page -> pages one step closer to this side's root
	depth   int
}

func newFrontier(root int) *frontier {
	return &frontier{
		current: []int{root},
		parents: map[int][]int{root: nil},
	}
}

// visited reports whether page has been reached from this side
func (f *frontier) visited(page int) bool {
	_, ok := f.parents[page]
	return ok
}

// advance expands the frontier one level using the given adjacency and
// returns the newly reached pages. A page reached from several pages in the
// current level keeps all of them as parents
func (f *frontier) advance(adjacency map[int][]int) []int {
	next := make(map[int][]int)
	for _, page := range f.current {
		for _, neighbor := range adjacency[page] {
			if f.visited(neighbor) {
				continue
			}
			next[neighbor] = append(next[neighbor], page)
		}
	}

	reached := make([]int, 0, len(next))
	for page, parents := range next {
		sort.Ints(parents)
		f.parents[page] = parents
		reached = append(reached, page)
	}
	sort.Ints(reached)

	f.current = reached
	f.depth++
	return reached
}

// routes returns every chain from page back to this side's root,
// starting at page
func (f *frontier) routes(page int) [][]int {
	parents := f.parents[page]
	if len(parents) == 0 {
		return [][]int{{page}}
	}

	var result [][]int
	for _, parent := range parents {
		for _, tail := range f.routes(parent) {
			route := make([]int, 0, len(tail)+1)
			route = append(route, page)
			route = append(route, tail...)
			result = append(result, route)
		}
	}
	return result
}
