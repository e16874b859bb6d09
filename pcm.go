// SPDX-License-Identifier: EPL-2.0

package audpool

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audpool/audio"
	"github.com/ik5/audpool/utils"
)

// EncodeMono16 resamples src to targetRate, mixes it down to mono and
// collects the whole stream as 16-bit PCM. src is not closed.
//
// bufferSize is the number of mono samples read per call; larger buffers
// trade memory for fewer calls.
func EncodeMono16(src audio.Source, targetRate, bufferSize int) ([]int16, error) {
	if bufferSize <= 0 {
		bufferSize = src.BufSize()
	}
	if bufferSize <= 0 {
		bufferSize = 4096
	}

	var in audio.Source = src
	if src.SampleRate() != targetRate {
		in = audio.NewResampler(src, targetRate)
	}
	mono := audio.NewMonoMixer(in)

	pcm16 := make([]int16, 0, targetRate)
	buf := make([]float32, bufferSize)

	for {
		n, err := mono.ReadSamples(buf)
		for _, x := range buf[:n] {
			pcm16 = append(pcm16, utils.Float32ToInt16(x))
		}

		if errors.Is(err, io.EOF) {
			return pcm16, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}
}
