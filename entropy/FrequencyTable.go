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
	"io"

	"github.com/pkg/errors"
)

const (
	_FREQ_BUFFER_SIZE = 64 * 1024
)

// FrequencyTable holds the number of occurrences of each byte value
type FrequencyTable [256]uint64

// ComputeFrequencies adds the byte counts of the block to the table
func ComputeFrequencies(block []byte, freqs *FrequencyTable) {
	end16 := len(block) & -16
	var f0, f1, f2, f3 [256]uint64

	for i := 0; i < end16; i += 16 {
		b := block[i : i+16]
		f0[b[0]]++
		f1[b[1]]++
		f2[b[2]]++
		f3[b[3]]++
		f0[b[4]]++
		f1[b[5]]++
		f2[b[6]]++
		f3[b[7]]++
		f0[b[8]]++
		f1[b[9]]++
		f2[b[10]]++
		f3[b[11]]++
		f0[b[12]]++
		f1[b[13]]++
		f2[b[14]]++
		f3[b[15]]++
	}

	for i := end16; i < len(block); i++ {
		freqs[block[i]]++
	}

	for i := range freqs {
		freqs[i] += f0[i] + f1[i] + f2[i] + f3[i]
	}
}

// CountFrequencies reads the stream until EOF and returns the table of byte
// counts along with the number of bytes read.
func CountFrequencies(r io.Reader) (FrequencyTable, int64, error) {
	var freqs FrequencyTable
	buf := make([]byte, _FREQ_BUFFER_SIZE)
	total := int64(0)

	for {
		n, err := r.Read(buf)

		if n > 0 {
			ComputeFrequencies(buf[0:n], &freqs)
			total += int64(n)
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return freqs, total, errors.Wrap(err, "cannot compute byte frequencies")
		}
	}

	return freqs, total, nil
}

// Total returns the sum of all counts
func (this *FrequencyTable) Total() uint64 {
	sum := uint64(0)

	for _, f := range this {
		sum += f
	}

	return sum
}

// Distinct returns the number of symbols with a non zero count
func (this *FrequencyTable) Distinct() int {
	n := 0

	for _, f := range this {
		if f != 0 {
			n++
		}
	}

	return n
}
