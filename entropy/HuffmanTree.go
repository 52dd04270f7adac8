/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package entropy

import (
	"container/heap"

	huffman "github.com/flanglet/huffman-go"
	"github.com/pkg/errors"
)

const (
	_TREE_INTERNAL_NODE = 0
	_TREE_LEAF_NODE     = 1
)

// HuffmanNode a node of the tree. Children are indexes in the node arena.
// Leaves have no children (Left = Right = -1).
type HuffmanNode struct {
	Weight uint64
	Symbol byte
	Left   int
	Right  int
}

// IsLeaf returns true if the node has no child
func (this HuffmanNode) IsLeaf() bool {
	return this.Left < 0
}

// HuffmanTree a binary prefix code tree stored in a flat arena of nodes
type HuffmanTree struct {
	nodes []HuffmanNode
	root  int
}

// Min-queue of node indexes ordered by weight then creation order. The
// creation order is the index in the arena.
type nodeQueue struct {
	nodes *[]HuffmanNode
	items []int
}

func (this *nodeQueue) Len() int {
	return len(this.items)
}

func (this *nodeQueue) Less(i, j int) bool {
	ni := this.items[i]
	nj := this.items[j]
	wi := (*this.nodes)[ni].Weight
	wj := (*this.nodes)[nj].Weight

	if wi == wj {
		return ni < nj
	}

	return wi < wj
}

func (this *nodeQueue) Swap(i, j int) {
	this.items[i], this.items[j] = this.items[j], this.items[i]
}

func (this *nodeQueue) Push(x any) {
	this.items = append(this.items, x.(int))
}

func (this *nodeQueue) Pop() any {
	n := len(this.items)
	x := this.items[n-1]
	this.items = this.items[0 : n-1]
	return x
}

// NewHuffmanTree builds the tree of the symbols with a non zero frequency.
// The two lightest nodes are merged until one node is left, ties being
// broken by creation order. The first node extracted becomes the left child.
// No symbol gives an empty tree (Root() == -1), one symbol gives a single leaf.
func NewHuffmanTree(freqs *FrequencyTable) *HuffmanTree {
	this := &HuffmanTree{root: -1}
	this.nodes = make([]HuffmanNode, 0, 511)

	for s, f := range freqs {
		if f != 0 {
			this.nodes = append(this.nodes, HuffmanNode{Weight: f, Symbol: byte(s), Left: -1, Right: -1})
		}
	}

	if len(this.nodes) == 0 {
		return this
	}

	queue := &nodeQueue{nodes: &this.nodes, items: make([]int, 0, len(this.nodes))}

	for i := range this.nodes {
		queue.items = append(queue.items, i)
	}

	heap.Init(queue)

	for queue.Len() > 1 {
		left := heap.Pop(queue).(int)
		right := heap.Pop(queue).(int)
		weight := this.nodes[left].Weight + this.nodes[right].Weight
		this.nodes = append(this.nodes, HuffmanNode{Weight: weight, Left: left, Right: right})
		heap.Push(queue, len(this.nodes)-1)
	}

	this.root = heap.Pop(queue).(int)
	return this
}

// NewHuffmanTreeFromCodes rebuilds the tree described by the codes of the table.
// A table with a single symbol gives a single leaf.
func NewHuffmanTreeFromCodes(table *CodeTable) (*HuffmanTree, error) {
	this := &HuffmanTree{root: -1}
	alphabet := table.Alphabet()

	if len(alphabet) == 0 {
		return this, nil
	}

	this.nodes = make([]HuffmanNode, 0, 2*len(alphabet))

	if len(alphabet) == 1 {
		this.nodes = append(this.nodes, HuffmanNode{Symbol: byte(alphabet[0]), Left: -1, Right: -1})
		this.root = 0
		return this, nil
	}

	// Index 0 is the root, it can never be a child: use it to flag missing children
	this.nodes = append(this.nodes, HuffmanNode{})
	this.root = 0

	for _, s := range alphabet {
		code := table.codes[s]
		idx := 0

		for i := uint(0); i < code.Length; i++ {
			if this.nodes[idx].IsLeaf() == true {
				return nil, errors.Wrapf(ErrInvalidCodes, "code of symbol %d extends another code", s)
			}

			child := &this.nodes[idx].Left

			if code.Bit(i) == 1 {
				child = &this.nodes[idx].Right
			}

			if *child == 0 {
				if i == code.Length-1 {
					*child = len(this.nodes)
					this.nodes = append(this.nodes, HuffmanNode{Symbol: byte(s), Left: -1, Right: -1})
				} else {
					*child = len(this.nodes)
					this.nodes = append(this.nodes, HuffmanNode{})
				}
			} else if i == code.Length-1 {
				return nil, errors.Wrapf(ErrInvalidCodes, "code of symbol %d is the prefix of another code", s)
			}

			idx = *child
		}
	}

	for i := range this.nodes {
		if this.nodes[i].IsLeaf() == false && (this.nodes[i].Left == 0 || this.nodes[i].Right == 0) {
			return nil, errors.Wrap(ErrInvalidCodes, "incomplete prefix code")
		}
	}

	return this, nil
}

// ReadHuffmanTree rebuilds a tree written by Serialize
func ReadHuffmanTree(ibs huffman.InputBitStream) (tree *HuffmanTree, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = recoveredError(r)
		}
	}()

	type slot struct {
		parent int
		right  bool
	}

	this := &HuffmanTree{root: 0}
	this.nodes = make([]HuffmanNode, 0, 511)
	pending := make([]slot, 0, 256)
	pending = append(pending, slot{parent: -1})
	var seen [256]bool
	leaves := 0

	for len(pending) > 0 {
		s := pending[len(pending)-1]
		pending = pending[0 : len(pending)-1]
		idx := len(this.nodes)

		if ibs.ReadBit() == _TREE_LEAF_NODE {
			symbol := byte(ibs.ReadBits(8))

			if seen[symbol] == true {
				return nil, errors.Wrapf(ErrInvalidCodes, "duplicate leaf for symbol %d", symbol)
			}

			seen[symbol] = true
			leaves++
			this.nodes = append(this.nodes, HuffmanNode{Symbol: symbol, Left: -1, Right: -1})
		} else {
			// An internal node adds one leaf to the final count
			if leaves+len(pending)+2 > 256 {
				return nil, errors.Wrap(ErrInvalidCodes, "too many leaves in tree")
			}

			this.nodes = append(this.nodes, HuffmanNode{})
			pending = append(pending, slot{parent: idx, right: true})
			pending = append(pending, slot{parent: idx, right: false})
		}

		if s.parent >= 0 {
			if s.right == true {
				this.nodes[s.parent].Right = idx
			} else {
				this.nodes[s.parent].Left = idx
			}
		}
	}

	return this, nil
}

// Serialize writes the tree in pre-order: 0 for an internal node, 1 followed
// by the 8 bit symbol for a leaf. Returns the number of bits written.
// An empty tree writes nothing.
func (this *HuffmanTree) Serialize(obs huffman.OutputBitStream) uint {
	if this.root < 0 {
		return 0
	}

	written := uint(0)
	stack := make([]int, 0, 256)
	stack = append(stack, this.root)

	for len(stack) > 0 {
		node := &this.nodes[stack[len(stack)-1]]
		stack = stack[0 : len(stack)-1]

		if node.IsLeaf() == true {
			obs.WriteBit(_TREE_LEAF_NODE)
			obs.WriteBits(uint64(node.Symbol), 8)
			written += 9
			continue
		}

		obs.WriteBit(_TREE_INTERNAL_NODE)
		written++
		stack = append(stack, node.Right, node.Left)
	}

	return written
}

// Root returns the index of the root node or -1 if the tree is empty
func (this *HuffmanTree) Root() int {
	return this.root
}

// Node returns the node at index i of the arena
func (this *HuffmanTree) Node(i int) HuffmanNode {
	return this.nodes[i]
}

// Size returns the number of nodes in the tree
func (this *HuffmanTree) Size() int {
	return len(this.nodes)
}

// LeafCount returns the number of leaves
func (this *HuffmanTree) LeafCount() int {
	n := 0

	for i := range this.nodes {
		if this.nodes[i].IsLeaf() == true {
			n++
		}
	}

	return n
}

// Leaves returns the symbols of the leaves, left to right
func (this *HuffmanTree) Leaves() []byte {
	res := make([]byte, 0, 256)

	if this.root < 0 {
		return res
	}

	stack := []int{this.root}

	for len(stack) > 0 {
		node := &this.nodes[stack[len(stack)-1]]
		stack = stack[0 : len(stack)-1]

		if node.IsLeaf() == true {
			res = append(res, node.Symbol)
		} else {
			stack = append(stack, node.Right, node.Left)
		}
	}

	return res
}

// Depth returns the length of the longest path from the root to a leaf
// (0 for a single leaf, -1 for an empty tree)
func (this *HuffmanTree) Depth() int {
	if this.root < 0 {
		return -1
	}

	type pending struct {
		node  int
		depth int
	}

	maxDepth := 0
	stack := []pending{{node: this.root}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[0 : len(stack)-1]
		node := &this.nodes[p.node]

		if node.IsLeaf() == true {
			if p.depth > maxDepth {
				maxDepth = p.depth
			}

			continue
		}

		stack = append(stack, pending{node.Left, p.depth + 1}, pending{node.Right, p.depth + 1})
	}

	return maxDepth
}

// Equals returns true if both trees have the same shape and the same
// symbols at the same leaves. Weights are ignored.
func (this *HuffmanTree) Equals(other *HuffmanTree) bool {
	if other == nil {
		return false
	}

	if this.root < 0 || other.root < 0 {
		return this.root < 0 && other.root < 0
	}

	stack := [][2]int{{this.root, other.root}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[0 : len(stack)-1]
		n1 := &this.nodes[p[0]]
		n2 := &other.nodes[p[1]]

		if n1.IsLeaf() != n2.IsLeaf() {
			return false
		}

		if n1.IsLeaf() == true {
			if n1.Symbol != n2.Symbol {
				return false
			}

			continue
		}

		stack = append(stack, [2]int{n1.Left, n2.Left}, [2]int{n1.Right, n2.Right})
	}

	return true
}
