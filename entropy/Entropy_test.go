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
	"bytes"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/flanglet/huffman-go/bitstream"
	"github.com/flanglet/huffman-go/internal"
	"github.com/klauspost/compress/huff0"
	"github.com/pkg/errors"
)

func randomBlock(r *rand.Rand, size, alphabet int) []byte {
	block := make([]byte, size)

	for i := range block {
		// Skewed distribution: low symbols are more frequent
		v := r.Intn(alphabet)
		block[i] = byte(r.Intn(v + 1))
	}

	return block
}

func frequenciesOf(block []byte) *FrequencyTable {
	var freqs FrequencyTable
	ComputeFrequencies(block, &freqs)
	return &freqs
}

func TestFrequencies(b *testing.T) {
	r := rand.New(rand.NewSource(12345))

	for ii := 0; ii < 20; ii++ {
		block := randomBlock(r, r.Intn(5000), 1+r.Intn(256))
		var expected FrequencyTable

		for _, v := range block {
			expected[v]++
		}

		freqs := frequenciesOf(block)

		if *freqs != expected {
			b.Fatalf("Iteration %d: incorrect frequencies", ii)
		}

		if freqs.Total() != uint64(len(block)) {
			b.Fatalf("Iteration %d: total %d, expected %d", ii, freqs.Total(), len(block))
		}

		counted, n, err := CountFrequencies(bytes.NewReader(block))

		if err != nil {
			b.Fatalf("Iteration %d: %v", ii, err)
		}

		if n != int64(len(block)) || counted != expected {
			b.Fatalf("Iteration %d: incorrect frequencies from stream", ii)
		}
	}
}

func TestScenario(b *testing.T) {
	input := []byte("AAAAABBBCC")
	freqs := frequenciesOf(input)

	if freqs['A'] != 5 || freqs['B'] != 3 || freqs['C'] != 2 || freqs.Distinct() != 3 {
		b.Fatalf("Incorrect frequencies: A=%d B=%d C=%d", freqs['A'], freqs['B'], freqs['C'])
	}

	tree := NewHuffmanTree(freqs)
	table := NewCodeTable(tree)
	expected := map[byte]string{'A': "0", 'B': "11", 'C': "10"}

	for s, str := range expected {
		code, err := table.Lookup(s)

		if err != nil {
			b.Fatal(err)
		}

		if code.String() != str {
			b.Errorf("Symbol %c: got code %s, expected %s", s, code.String(), str)
		}
	}

	ca, _ := table.Lookup('A')
	cb, _ := table.Lookup('B')
	cc, _ := table.Lookup('C')

	if ca.Length > cb.Length || cb.Length > cc.Length {
		b.Errorf("More frequent symbols must not get longer codes")
	}

	if table.EncodedBits(freqs) != 15 {
		b.Errorf("Got %d encoded bits, expected 15", table.EncodedBits(freqs))
	}

	output, err := roundTrip(input, tree, table)

	if err != nil {
		b.Fatal(err)
	}

	if bytes.Equal(input, output) == false {
		b.Fatalf("Got %q, expected %q", output, input)
	}
}

func roundTrip(input []byte, tree *HuffmanTree, table *CodeTable) ([]byte, error) {
	bs := internal.NewBufferStream()
	obs, _ := bitstream.NewDefaultOutputBitStream(bs, 16384)
	enc, err := NewHuffmanEncoder(obs, table)

	if err != nil {
		return nil, err
	}

	if _, err = enc.Write(input); err != nil {
		return nil, err
	}

	enc.Dispose()

	if _, err = obs.Close(); err != nil {
		return nil, err
	}

	ibs, _ := bitstream.NewDefaultInputBitStream(bs, 16384)
	dec, err := NewHuffmanDecoder(ibs, tree)

	if err != nil {
		return nil, err
	}

	output := make([]byte, len(input))

	if _, err = dec.Read(output); err != nil {
		return nil, err
	}

	dec.Dispose()
	return output, nil
}

func TestRoundTrip(b *testing.T) {
	r := rand.New(rand.NewSource(1))

	for ii := 0; ii < 50; ii++ {
		var input []byte

		switch ii {
		case 0:
			input = []byte{0, 1}
		case 1:
			input = bytes.Repeat([]byte{'z'}, 1000)
		default:
			input = randomBlock(r, 1+r.Intn(20000), 1+r.Intn(256))
		}

		freqs := frequenciesOf(input)
		tree := NewHuffmanTree(freqs)
		table := NewCodeTable(tree)

		output, err := roundTrip(input, tree, table)

		if err != nil {
			b.Fatalf("Iteration %d: %v", ii, err)
		}

		if bytes.Equal(input, output) == false {
			b.Fatalf("Iteration %d: decoded data differs from the original", ii)
		}

		// Same payload with canonical codes
		canonical := table.Canonical()
		ctree, err := NewHuffmanTreeFromCodes(canonical)

		if err != nil {
			b.Fatalf("Iteration %d: %v", ii, err)
		}

		output, err = roundTrip(input, ctree, canonical)

		if err != nil {
			b.Fatalf("Iteration %d (canonical): %v", ii, err)
		}

		if bytes.Equal(input, output) == false {
			b.Fatalf("Iteration %d (canonical): decoded data differs from the original", ii)
		}
	}
}

func TestPrefixProperty(b *testing.T) {
	r := rand.New(rand.NewSource(7))

	for ii := 0; ii < 30; ii++ {
		freqs := frequenciesOf(randomBlock(r, 1+r.Intn(30000), 2+r.Intn(255)))
		table := NewCodeTable(NewHuffmanTree(freqs))

		if table.Len() != freqs.Distinct() {
			b.Fatalf("Iteration %d: %d codes for %d symbols", ii, table.Len(), freqs.Distinct())
		}

		if table.IsPrefixFree() == false {
			b.Fatalf("Iteration %d: the codes do not form a prefix code", ii)
		}

		if table.Canonical().IsPrefixFree() == false {
			b.Fatalf("Iteration %d: the canonical codes do not form a prefix code", ii)
		}

		// Codes do not get longer when symbols get more frequent
		alphabet := table.Alphabet()

		for _, s1 := range alphabet {
			for _, s2 := range alphabet {
				if freqs[s1] > freqs[s2] && table.codes[s1].Length > table.codes[s2].Length {
					b.Fatalf("Iteration %d: symbol %d is more frequent than %d but has a longer code", ii, s1, s2)
				}
			}
		}
	}
}

func TestLongCodes(b *testing.T) {
	// Fibonacci weights produce a degenerate tree with 100+ bit codes
	var freqs FrequencyTable
	f1, f2 := uint64(1), uint64(1)

	for i := 0; i < 90; i++ {
		freqs[i] = f1
		f1, f2 = f2, f1+f2
	}

	tree := NewHuffmanTree(&freqs)
	table := NewCodeTable(tree)

	if tree.Depth() != 89 {
		b.Fatalf("Got tree depth %d, expected 89", tree.Depth())
	}

	if table.IsPrefixFree() == false {
		b.Fatal("The codes do not form a prefix code")
	}

	input := []byte{0, 1, 2, 45, 88, 89, 0, 1, 3, 2, 1, 0}
	output, err := roundTrip(input, tree, table)

	if err != nil {
		b.Fatal(err)
	}

	if bytes.Equal(input, output) == false {
		b.Fatalf("Got %v, expected %v", output, input)
	}

	canonical := table.Canonical()

	if canonical.Lengths() != table.Lengths() {
		b.Fatal("Canonical codes must keep the code lengths")
	}

	ctree, err := NewHuffmanTreeFromCodes(canonical)

	if err != nil {
		b.Fatal(err)
	}

	if output, err = roundTrip(input, ctree, canonical); err != nil {
		b.Fatal(err)
	}

	if bytes.Equal(input, output) == false {
		b.Fatalf("Canonical: got %v, expected %v", output, input)
	}
}

func TestSingleSymbol(b *testing.T) {
	input := bytes.Repeat([]byte{0x42}, 100)
	freqs := frequenciesOf(input)
	tree := NewHuffmanTree(freqs)

	if tree.LeafCount() != 1 || tree.Size() != 1 || tree.Depth() != 0 {
		b.Fatalf("Expected a single leaf, got %d leaves and %d nodes", tree.LeafCount(), tree.Size())
	}

	table := NewCodeTable(tree)
	code, err := table.Lookup(0x42)

	if err != nil {
		b.Fatal(err)
	}

	if code.Length != 1 || code.Bit(0) != 0 {
		b.Fatalf("Expected code '0', got '%s'", code.String())
	}

	if table.EncodedBits(freqs) != 100 {
		b.Fatalf("Expected 100 bits, got %d", table.EncodedBits(freqs))
	}

	if _, err = table.Lookup(0x43); errors.Is(err, ErrUnknownSymbol) == false {
		b.Fatalf("Expected unknown symbol error, got %v", err)
	}

	output, err := roundTrip(input, tree, table)

	if err != nil {
		b.Fatal(err)
	}

	if bytes.Equal(input, output) == false {
		b.Fatal("Decoded data differs from the original")
	}

	var lengths [256]uint
	lengths[0x42] = 1
	ctable, err := NewCanonicalCodeTable(lengths)

	if err != nil {
		b.Fatal(err)
	}

	ctree, err := NewHuffmanTreeFromCodes(ctable)

	if err != nil {
		b.Fatal(err)
	}

	if ctree.Equals(tree) == false {
		b.Fatal("Single symbol tree rebuilt from codes differs")
	}
}

func TestEmptyTree(b *testing.T) {
	var freqs FrequencyTable
	tree := NewHuffmanTree(&freqs)

	if tree.Root() != -1 || tree.LeafCount() != 0 || tree.Depth() != -1 {
		b.Fatal("Expected an empty tree")
	}

	if NewCodeTable(tree).Len() != 0 {
		b.Fatal("Expected an empty code table")
	}

	bs := internal.NewBufferStream()
	obs, _ := bitstream.NewDefaultOutputBitStream(bs, 16384)

	if tree.Serialize(obs) != 0 {
		b.Fatal("An empty tree must not write any bit")
	}

	obs.Close()

	if bs.Len() != 0 {
		b.Fatalf("Expected no byte, got %d", bs.Len())
	}
}

func serialize(tree *HuffmanTree) ([]byte, uint) {
	bs := internal.NewBufferStream()
	obs, _ := bitstream.NewDefaultOutputBitStream(bs, 16384)
	n := tree.Serialize(obs)
	obs.Close()
	return bs.Bytes(), n
}

func TestTreeSerialization(b *testing.T) {
	r := rand.New(rand.NewSource(99))

	for ii := 0; ii < 30; ii++ {
		freqs := frequenciesOf(randomBlock(r, 1+r.Intn(10000), 1+r.Intn(256)))

		if ii == 0 {
			// All 256 symbols
			for i := range freqs {
				freqs[i]++
			}
		}

		tree := NewHuffmanTree(freqs)
		buf1, n := serialize(tree)

		// One bit per node plus 8 bits per leaf
		if n != uint(tree.Size()+8*tree.LeafCount()) {
			b.Fatalf("Iteration %d: %d bits written for %d nodes", ii, n, tree.Size())
		}

		ibs, _ := bitstream.NewDefaultInputBitStream(internal.NewBufferStream(buf1), 16384)
		tree2, err := ReadHuffmanTree(ibs)

		if err != nil {
			b.Fatalf("Iteration %d: %v", ii, err)
		}

		if ibs.Read() != uint64(n) {
			b.Fatalf("Iteration %d: read %d bits, expected %d", ii, ibs.Read(), n)
		}

		if tree.Equals(tree2) == false {
			b.Fatalf("Iteration %d: the deserialized tree differs", ii)
		}

		if bytes.Equal(tree.Leaves(), tree2.Leaves()) == false || tree.Depth() != tree2.Depth() {
			b.Fatalf("Iteration %d: the deserialized tree differs", ii)
		}

		buf2, _ := serialize(tree2)

		if bytes.Equal(buf1, buf2) == false {
			b.Fatalf("Iteration %d: serialization is not idempotent", ii)
		}
	}
}

func TestCorruptTree(b *testing.T) {
	freqs := frequenciesOf([]byte("the quick brown fox jumps over the lazy dog"))
	buf, n := serialize(NewHuffmanTree(freqs))

	// Truncated bits
	for _, size := range []int{0, 1, len(buf) / 2, int(n/8) - 1} {
		ibs, _ := bitstream.NewDefaultInputBitStream(internal.NewBufferStream(bytes.Clone(buf[0:size])), 1024)

		if _, err := ReadHuffmanTree(ibs); errors.Is(err, ErrInvalidCodes) == false {
			b.Errorf("Truncated to %d bytes: expected invalid code error, got %v", size, err)
		}
	}

	// Duplicate leaves: internal node, leaf 'a', leaf 'a'
	bs := internal.NewBufferStream()
	obs, _ := bitstream.NewDefaultOutputBitStream(bs, 1024)
	obs.WriteBit(0)
	obs.WriteBit(1)
	obs.WriteBits('a', 8)
	obs.WriteBit(1)
	obs.WriteBits('a', 8)
	obs.Close()
	ibs, _ := bitstream.NewDefaultInputBitStream(bs, 1024)

	if _, err := ReadHuffmanTree(ibs); errors.Is(err, ErrInvalidCodes) == false {
		b.Errorf("Duplicate leaves: expected invalid code error, got %v", err)
	}

	// Only internal nodes: too many leaves
	ibs, _ = bitstream.NewDefaultInputBitStream(internal.NewBufferStream(make([]byte, 1024)), 1024)

	if _, err := ReadHuffmanTree(ibs); errors.Is(err, ErrInvalidCodes) == false {
		b.Errorf("Too many leaves: expected invalid code error, got %v", err)
	}
}

func TestCanonicalCodes(b *testing.T) {
	var lengths [256]uint
	lengths['a'] = 2
	lengths['b'] = 1
	lengths['c'] = 3
	lengths['d'] = 3
	table, err := NewCanonicalCodeTable(lengths)

	if err != nil {
		b.Fatal(err)
	}

	expected := map[byte]string{'b': "0", 'a': "10", 'c': "110", 'd': "111"}

	for s, str := range expected {
		if code, _ := table.Lookup(s); code.String() != str {
			b.Errorf("Symbol %c: got code %s, expected %s", s, code.String(), str)
		}
	}

	tests := []struct {
		name    string
		lengths map[int]uint
	}{
		{"oversubscribed", map[int]uint{1: 1, 2: 1, 3: 1}},
		{"incomplete", map[int]uint{1: 1, 2: 2}},
		{"single symbol", map[int]uint{7: 2}},
		{"too long", map[int]uint{1: 1, 2: 256}},
	}

	for _, tt := range tests {
		var l [256]uint

		for s, n := range tt.lengths {
			l[s] = n
		}

		if _, err := NewCanonicalCodeTable(l); errors.Is(err, ErrInvalidCodes) == false {
			b.Errorf("%s: expected invalid code error, got %v", tt.name, err)
		}
	}
}

func TestCodeLengthsEncoding(b *testing.T) {
	r := rand.New(rand.NewSource(3))

	for ii := 0; ii < 20; ii++ {
		freqs := frequenciesOf(randomBlock(r, 1+r.Intn(10000), 1+r.Intn(256)))
		table := NewCodeTable(NewHuffmanTree(freqs)).Canonical()
		bs := internal.NewBufferStream()
		obs, _ := bitstream.NewDefaultOutputBitStream(bs, 16384)

		if _, err := EncodeCodeLengths(obs, table); err != nil {
			b.Fatalf("Iteration %d: %v", ii, err)
		}

		obs.Close()
		ibs, _ := bitstream.NewDefaultInputBitStream(bs, 16384)
		table2, err := DecodeCodeLengths(ibs)

		if err != nil {
			b.Fatalf("Iteration %d: %v", ii, err)
		}

		if table.codes != table2.codes {
			b.Fatalf("Iteration %d: decoded code table differs", ii)
		}
	}
}

// Cost of an optimal prefix code computed with the two queue method: the sum
// of the weights of all the internal nodes.
func optimalCost(freqs *FrequencyTable) uint64 {
	leaves := make([]uint64, 0, 256)

	for _, f := range freqs {
		if f != 0 {
			leaves = append(leaves, f)
		}
	}

	slices.Sort(leaves)
	merged := make([]uint64, 0, len(leaves))
	cost := uint64(0)
	i, j := 0, 0

	pop := func() uint64 {
		if j >= len(merged) || (i < len(leaves) && leaves[i] <= merged[j]) {
			i++
			return leaves[i-1]
		}

		j++
		return merged[j-1]
	}

	for n := len(leaves); n > 1; n-- {
		w := pop() + pop()
		merged = append(merged, w)
		cost += w
	}

	return cost
}

// The weighted path length must be minimal, hence not larger than the payload
// of a length limited Huffman coder
func TestOptimality(b *testing.T) {
	r := rand.New(rand.NewSource(2024))

	for ii := 0; ii < 30; ii++ {
		block := randomBlock(r, 2+r.Intn(50000), 2+r.Intn(255))
		freqs := frequenciesOf(block)

		if freqs.Distinct() < 2 {
			continue
		}

		table := NewCodeTable(NewHuffmanTree(freqs))
		bits := table.EncodedBits(freqs)

		if expected := optimalCost(freqs); bits != expected {
			b.Fatalf("Iteration %d: %d encoded bits, expected %d", ii, bits, expected)
		}

		s := &huff0.Scratch{}

		if _, _, err := huff0.Compress1X(block, s); err != nil {
			// Incompressible or single symbol block
			continue
		}

		if bits > uint64(len(s.OutData))*8 {
			b.Fatalf("Iteration %d: %d encoded bits, more than the %d bits of a length limited coder",
				ii, bits, len(s.OutData)*8)
		}
	}
}

func TestDeterminism(b *testing.T) {
	r := rand.New(rand.NewSource(5))
	freqs := frequenciesOf(randomBlock(r, 10000, 256))
	buf1, _ := serialize(NewHuffmanTree(freqs))
	buf2, _ := serialize(NewHuffmanTree(freqs))

	if bytes.Equal(buf1, buf2) == false {
		b.Fatal("Two trees built from the same frequencies differ")
	}
}

func ExampleCode_String() {
	freqs := frequenciesOf([]byte("AAAAABBBCC"))
	table := NewCodeTable(NewHuffmanTree(freqs))

	for _, s := range table.Alphabet() {
		code, _ := table.Lookup(byte(s))
		fmt.Printf("%c=%s\n", s, code)
	}

	// Output:
	// A=0
	// B=11
	// C=10
}
