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

package bitstream

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	huffman "github.com/flanglet/huffman-go"
	"github.com/flanglet/huffman-go/internal"
	"github.com/icza/bitio"
)

func TestBitStreamAligned(b *testing.T) {
	if err := testCorrectness(true); err != nil {
		b.Error(err)
	}
}

func TestBitStreamMisaligned(b *testing.T) {
	if err := testCorrectness(false); err != nil {
		b.Error(err)
	}
}

func testCorrectness(aligned bool) error {
	r := rand.New(rand.NewSource(12345))
	values := make([]uint64, 1000)
	lengths := make([]uint, len(values))

	for test := 1; test <= 10; test++ {
		bs := internal.NewBufferStream()
		obs, _ := NewDefaultOutputBitStream(bs, 1024)
		total := uint64(0)

		for i := range values {
			if aligned == true {
				lengths[i] = 32
			} else {
				lengths[i] = 1 + uint(r.Intn(64))
			}

			values[i] = r.Uint64() & (0xFFFFFFFFFFFFFFFF >> (64 - lengths[i]))
			obs.WriteBits(values[i], lengths[i])
			total += uint64(lengths[i])
		}

		if obs.Written() != total {
			return fmt.Errorf("Test %d: bits written: %d, expected %d", test, obs.Written(), total)
		}

		// Close first to force flush()
		if _, err := obs.Close(); err != nil {
			return err
		}

		// The last byte is padded
		if obs.Written() != ((total+7)>>3)<<3 {
			return fmt.Errorf("Test %d: bits written after close: %d, expected %d", test, obs.Written(), ((total+7)>>3)<<3)
		}

		if uint64(bs.Len()) != (total+7)>>3 {
			return fmt.Errorf("Test %d: %d bytes written, expected %d", test, bs.Len(), (total+7)>>3)
		}

		ibs, _ := NewDefaultInputBitStream(bs, 1024)

		for i := range values {
			if x := ibs.ReadBits(lengths[i]); x != values[i] {
				return fmt.Errorf("Test %d: value #%d: got %x, expected %x", test, i, x, values[i])
			}
		}

		if ibs.Read() != total {
			return fmt.Errorf("Test %d: bits read: %d, expected %d", test, ibs.Read(), total)
		}

		ibs.Close()
	}

	return nil
}

// Compare the bytes produced to the ones of an independent MSB first bit writer
func TestBitOrder(b *testing.T) {
	r := rand.New(rand.NewSource(42))

	for test := 0; test < 20; test++ {
		expected := &bytes.Buffer{}
		w := bitio.NewWriter(expected)
		bs := internal.NewBufferStream()
		obs, _ := NewDefaultOutputBitStream(bs, 1024)

		for i := 0; i < 500; i++ {
			if r.Intn(4) == 0 {
				bit := r.Intn(2)
				obs.WriteBit(bit)

				if err := w.WriteBool(bit == 1); err != nil {
					b.Fatal(err)
				}

				continue
			}

			n := uint(1 + r.Intn(64))
			v := r.Uint64() & (0xFFFFFFFFFFFFFFFF >> (64 - n))
			obs.WriteBits(v, n)

			if err := w.WriteBits(v, uint8(n)); err != nil {
				b.Fatal(err)
			}
		}

		if err := w.Close(); err != nil {
			b.Fatal(err)
		}

		obs.Close()

		if bytes.Equal(bs.Bytes(), expected.Bytes()) == false {
			b.Fatalf("Test %d: bitstream bytes differ from reference", test)
		}
	}
}

func TestArrays(b *testing.T) {
	r := rand.New(rand.NewSource(7))

	for _, count := range []uint{0, 3, 8, 13, 64, 100, 515, 4096} {
		input := make([]byte, (count+7)>>3)
		r.Read(input)

		if count&7 != 0 {
			// Only the top bits of the last byte are significant
			input[len(input)-1] &= byte(0xFF << (8 - count&7))
		}

		bs := internal.NewBufferStream()
		obs, _ := NewDefaultOutputBitStream(bs, 1024)
		obs.WriteBit(1)

		if n := obs.WriteArray(input, count); n != count {
			b.Fatalf("Wrote %d bits, expected %d", n, count)
		}

		obs.Close()
		ibs, _ := NewDefaultInputBitStream(bs, 1024)
		output := make([]byte, len(input))

		if ibs.ReadBit() != 1 {
			b.Fatal("Incorrect leading bit")
		}

		if n := ibs.ReadArray(output, count); n != count {
			b.Fatalf("Read %d bits, expected %d", n, count)
		}

		if bytes.Equal(input, output) == false {
			b.Fatalf("Count %d: arrays differ", count)
		}
	}
}

func TestPadding(b *testing.T) {
	bs := internal.NewBufferStream()
	obs, _ := NewDefaultOutputBitStream(bs, 1024)
	obs.WriteBits(0x5, 3) // 101

	obs.Close()
	res := bs.Bytes()

	if len(res) != 1 || res[0] != 0xA0 {
		b.Fatalf("Expected [0xA0], got %x", res)
	}

	ibs, _ := NewDefaultInputBitStream(internal.NewBufferStream(res), 1024)

	for i := 0; i < 8; i++ {
		if more, _ := ibs.HasMoreToRead(); more == false {
			b.Fatalf("Expected more bits at index %d", i)
		}

		ibs.ReadBit()
	}

	if more, err := ibs.HasMoreToRead(); more == true || err != nil {
		b.Fatalf("Expected end of stream, got %v, %v", more, err)
	}

	testReadPastEnd(b, ibs)
}

func TestEmptyStream(b *testing.T) {
	bs := internal.NewBufferStream()
	obs, _ := NewDefaultOutputBitStream(bs, 1024)
	obs.Close()

	if bs.Len() != 0 || obs.Written() != 0 {
		b.Fatalf("Expected an empty stream, got %d bytes", bs.Len())
	}

	ibs, _ := NewDefaultInputBitStream(bs, 1024)

	if more, _ := ibs.HasMoreToRead(); more == true {
		b.Fatal("Expected no bit to read")
	}

	testReadPastEnd(b, ibs)
}

func testReadPastEnd(b *testing.T, ibs huffman.InputBitStream) {
	defer func() {
		r := recover()

		if err, isErr := r.(error); isErr == false || errors.Is(err, ErrEndOfStream) == false {
			b.Errorf("Expected end of stream panic, got %v", r)
		}
	}()

	ibs.ReadBit()
}

func TestTruncatedRead(b *testing.T) {
	ibs, _ := NewDefaultInputBitStream(internal.NewBufferStream([]byte{1, 2, 3}), 1024)
	ibs.ReadBits(16)

	defer func() {
		if r := recover(); r != ErrEndOfStream {
			b.Errorf("Expected end of stream panic, got %v", r)
		}
	}()

	ibs.ReadBits(9)
}

func TestWritePostClose(b *testing.T) {
	bs := internal.NewBufferStream()
	obs, _ := NewDefaultOutputBitStream(bs, 1024)
	obs.WriteBits(0xFF, 8)
	obs.Close()

	defer func() {
		if r := recover(); r == nil {
			b.Error("Expected a panic when writing to a closed bitstream")
		}
	}()

	obs.WriteBits(0xFF, 64)
}

func TestInvalidParameters(b *testing.T) {
	if _, err := NewDefaultOutputBitStream(nil, 1024); err == nil {
		b.Error("Expected an error for a null stream")
	}

	for _, size := range []uint{0, 1000, 1025, 1 << 30} {
		if _, err := NewDefaultOutputBitStream(internal.NewBufferStream(), size); err == nil {
			b.Errorf("Expected an error for buffer size %d", size)
		}

		if _, err := NewDefaultInputBitStream(internal.NewBufferStream(), size); err == nil {
			b.Errorf("Expected an error for buffer size %d", size)
		}
	}
}

func TestDebugBitStream(b *testing.T) {
	trace := &strings.Builder{}
	bs := internal.NewBufferStream()
	obs, _ := NewDefaultOutputBitStream(bs, 1024)
	dbgobs, _ := NewDebugOutputBitStream(obs, trace)
	dbgobs.WriteBits(0xA5, 8)
	dbgobs.WriteBit(1)

	if dbgobs.Written() != 9 {
		b.Fatalf("Bits written: %d, expected 9", dbgobs.Written())
	}

	dbgobs.Close()

	if trace.String() != "10100101 1" {
		b.Fatalf("Unexpected trace: %q", trace.String())
	}

	trace.Reset()
	ibs, _ := NewDefaultInputBitStream(bs, 1024)
	dbgibs, _ := NewDebugInputBitStream(ibs, trace)
	dbgibs.ShowByte(true)

	if x := dbgibs.ReadBits(8); x != 0xA5 {
		b.Fatalf("Read %x, expected a5", x)
	}

	if trace.String() != "10100101 [165] " {
		b.Fatalf("Unexpected trace: %q", trace.String())
	}

	if dbgibs.Read() != 8 {
		b.Fatalf("Bits read: %d, expected 8", dbgibs.Read())
	}

	dbgibs.Close()
}
