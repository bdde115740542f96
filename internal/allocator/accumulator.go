package allocator

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// holding is a single (warehouse, quantity) pair held by the accumulator
type holding struct {
	source   string
	quantity int
}

// less orders holdings by source name, then quantity
func (h holding) less(o holding) bool {
	if h.source != o.source {
		return h.source < o.source
	}
	return h.quantity < o.quantity
}

// Accumulator is a min-heap of warehouse holdings keyed by quantity.
// It keeps just enough of the largest holdings seen so far to cover a demand.
//
// Alongside the heap it records every surviving source in insertion order,
// which is the order Distribute apportions quantities in.
//
// Tie-breaking follows the heap's percolation rules:
//   - moving up, a holding swaps with its parent when its quantity is less
//     than or equal to the parent's, so among equal quantities the later
//     holding reaches the root and is evicted first
//   - moving down, the child to compare against is chosen by (source,
//     quantity) order and a swap happens only when the parent is strictly
//     larger
type Accumulator struct {
	heap []holding // 1-indexed, heap[0] is unused
	sum  int
	held *orderedmap.OrderedMap[string, int]
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		heap: make([]holding, 1),
		held: orderedmap.New[string, int](),
	}
}

// Len returns the number of holdings currently retained
func (a *Accumulator) Len() int {
	return len(a.heap) - 1
}

// Sum returns the running total of retained quantities.
// After an eviction it may understate the retained total; it never overstates it.
func (a *Accumulator) Sum() int {
	return a.sum
}

// Sources returns the retained sources in insertion order
func (a *Accumulator) Sources() []string {
	sources := make([]string, 0, a.held.Len())
	for pair := a.held.Oldest(); pair != nil; pair = pair.Next() {
		sources = append(sources, pair.Key)
	}
	return sources
}

// Insert adds a source with the given quantity
func (a *Accumulator) Insert(source string, quantity int) {
	a.heap = append(a.heap, holding{source: source, quantity: quantity})
	a.sum += quantity
	a.held.Set(source, quantity)
	a.percolateUp(a.Len())
}

// PeekMin returns the holding at the root of the heap
func (a *Accumulator) PeekMin() (string, int, bool) {
	if a.Len() == 0 {
		return "", 0, false
	}
	root := a.heap[1]
	return root.source, root.quantity, true
}

// EvictMin removes the root holding and returns it.
// The last leaf replaces the root and its quantity is what gets taken off
// the running sum.
func (a *Accumulator) EvictMin() (string, int, bool) {
	n := a.Len()
	if n == 0 {
		return "", 0, false
	}

	root := a.heap[1]
	a.heap[1] = a.heap[n]
	a.sum -= a.heap[1].quantity
	a.held.Delete(root.source)

	a.heap = a.heap[:n]
	a.percolateDown(1)

	return root.source, root.quantity, true
}

// Trim evicts the minimum once if the remaining holdings still cover target.
// It reports whether an eviction happened.
func (a *Accumulator) Trim(target int) bool {
	_, smallest, ok := a.PeekMin()
	if !ok {
		return false
	}
	if a.sum-smallest < target {
		return false
	}
	a.EvictMin()
	return true
}

// Distribute apportions demand for item across the retained sources in the
// order they were inserted, taking as much as each source holds until the
// demand is met.
func (a *Accumulator) Distribute(dst *Shipment, item string, demand int) {
	for pair := a.held.Oldest(); pair != nil; pair = pair.Next() {
		take := min(demand, pair.Value)
		dst.Assign(pair.Key, item, take)

		demand -= take
		if demand == 0 {
			return
		}
	}
}

func (a *Accumulator) percolateUp(i int) {
	for i/2 > 0 {
		if a.heap[i].quantity <= a.heap[i/2].quantity {
			a.heap[i], a.heap[i/2] = a.heap[i/2], a.heap[i]
		}
		i /= 2
	}
}

func (a *Accumulator) percolateDown(i int) {
	for i*2 <= a.Len() {
		mc := a.minChild(i)
		if a.heap[i].quantity > a.heap[mc].quantity {
			a.heap[i], a.heap[mc] = a.heap[mc], a.heap[i]
		}
		i = mc
	}
}

func (a *Accumulator) minChild(i int) int {
	if i*2+1 > a.Len() {
		return i * 2
	}
	if a.heap[i*2].less(a.heap[i*2+1]) {
		return i * 2
	}
	return i*2 + 1
}
