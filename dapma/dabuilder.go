package dapma

import (
	"errors"
	"fmt"
	"sort"

	"github.com/emirpasic/gods/trees/redblacktree"
)

type trieNode struct {
	children []trieEdge
	value    int32 // pattern value, -1 if not accepting
	state    int32 // assigned double-array position
	fail     int32
}

type trieEdge struct {
	code int32
	node *trieNode
}

// Build constructs the automaton from the given patterns. Every pattern must
// be a non-empty symbol sequence and patterns must be unique; values[i] is
// reported for occurrences of keys[i]. keys and values must have the same
// length.
func (da *DoubleArray) Build(keys [][]int32, values []int) error {
	if len(keys) != len(values) {
		return errors.New("dapma: keys and values must have the same length")
	}
	if len(keys) == 0 {
		return errors.New("dapma: no patterns")
	}

	// Keep the key set ordered so that trie children are created in code
	// order and duplicates are caught up front.
	sorted := redblacktree.NewWith(func(a, b interface{}) int {
		ka := a.([]int32)
		kb := b.([]int32)
		for i := 0; i < len(ka) && i < len(kb); i++ {
			if ka[i] < kb[i] {
				return -1
			}
			if ka[i] > kb[i] {
				return 1
			}
		}
		return len(ka) - len(kb)
	})
	for i, key := range keys {
		if len(key) == 0 {
			return errors.New("dapma: empty pattern")
		}
		if _, ok := sorted.Get(key); ok {
			return fmt.Errorf("dapma: duplicate pattern %v", key)
		}
		sorted.Put(key, int32(values[i]))
	}

	da.codes = make(map[int32]int32)
	da.lengths = make([]int32, len(keys))
	var maxCode int32

	// The dense alphabet is assigned in first-seen order over the sorted
	// key set, so equal pattern sets always produce identical automata.
	root := &trieNode{value: -1}
	it := sorted.Iterator()
	for it.Next() {
		key := it.Key().([]int32)
		value := it.Value().(int32)
		node := root
		for _, sym := range key {
			code, ok := da.codes[sym]
			if !ok {
				maxCode++
				code = maxCode
				da.codes[sym] = code
			}
			var child *trieNode
			for i := range node.children {
				if node.children[i].code == code {
					child = node.children[i].node
					break
				}
			}
			if child == nil {
				child = &trieNode{value: -1}
				node.children = append(node.children, trieEdge{code: code, node: child})
			}
			node = child
		}
		node.value = value
		da.lengths[value] = int32(len(key))
	}

	da.base = da.base[:0]
	da.check = da.check[:0]
	da.fail = da.fail[:0]
	da.outputs = da.outputs[:0]
	da.ensure(int(maxCode) + 1)
	da.base[0] = -1
	da.check[0] = 0

	// Breadth-first allocation keeps sibling states adjacent, which is
	// what makes the base/check layout cache friendly during scans.
	root.state = 0
	queue := []*trieNode{root}
	searchStart := int32(1)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if len(node.children) == 0 {
			continue
		}
		// Dense codes are assigned in first-seen order, so sibling codes
		// are not necessarily ascending; findBase needs them sorted.
		sort.Slice(node.children, func(i, j int) bool {
			return node.children[i].code < node.children[j].code
		})
		base := da.findBase(node.children, &searchStart)
		da.base[node.state] = base
		for _, e := range node.children {
			t := base + e.code
			da.check[t] = node.state
			e.node.state = t
			queue = append(queue, e.node)
		}
	}

	// Failure links and output lists, in breadth-first order so that a
	// state's failure target is always finalized before the state itself.
	da.outHead = make([]int32, len(da.base))
	for i := range da.outHead {
		da.outHead[i] = -1
	}
	queue = queue[:0]
	for _, e := range root.children {
		e.node.fail = 0
		queue = append(queue, e.node)
		da.setOutputs(e.node)
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, e := range node.children {
			f := da.fail[node.state]
			for {
				if b := da.base[f]; b >= 0 {
					t := b + e.code
					if int(t) < len(da.check) && da.check[t] == f {
						e.node.fail = t
						break
					}
				}
				if f == 0 {
					e.node.fail = 0
					break
				}
				f = da.fail[f]
			}
			queue = append(queue, e.node)
			da.setOutputs(e.node)
		}
	}
	return nil
}

func (da *DoubleArray) setOutputs(node *trieNode) {
	da.fail[node.state] = node.fail
	head := da.outHead[node.fail]
	if node.value >= 0 {
		da.outputs = append(da.outputs, output{value: node.value, next: head})
		head = int32(len(da.outputs) - 1)
	}
	da.outHead[node.state] = head
}

func (da *DoubleArray) findBase(children []trieEdge, searchStart *int32) int32 {
	minCode := children[0].code
	for base := *searchStart - minCode; ; base++ {
		if base < 1 {
			continue
		}
		da.ensure(int(base + children[len(children)-1].code + 1))
		ok := true
		for _, e := range children {
			if da.check[base+e.code] != -1 {
				ok = false
				break
			}
		}
		if ok {
			// Nudge the next search past the densest prefix of the
			// array; a full free list is not worth the bookkeeping
			// for pattern sets of this size.
			for int(*searchStart) < len(da.check) && da.check[*searchStart] != -1 {
				*searchStart++
			}
			return base
		}
	}
}

func (da *DoubleArray) ensure(size int) {
	for len(da.base) < size {
		da.base = append(da.base, -1)
		da.check = append(da.check, -1)
		da.fail = append(da.fail, 0)
	}
}
