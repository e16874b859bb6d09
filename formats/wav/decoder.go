// SPDX-License-Identifier: EPL-2.0

// Package wav decodes RIFF/WAVE clips and writes 16-bit PCM WAV files.
package wav

import (
	"bytes"
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/audpool/audio"
	"github.com/ik5/audpool/formats/internal/pcm"
)

const formatPCM = 1

type Decoder struct{}

// Decode parses the WAV header and returns a Source positioned at the first
// sample. Readers that cannot seek are buffered in memory first.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrOnlyPCMSupported, dec.WavAudioFormat)
	}

	format := dec.Format()
	bitDepth := int(dec.BitDepth)

	frames := int64(-1)
	if frameSize := int(dec.NumChans) * bitDepth / 8; frameSize > 0 && dec.PCMSize > 0 {
		frames = int64(dec.PCMSize / frameSize)
	}

	src, err := pcm.NewSource(dec, format, bitDepth, true, frames)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}
	return src, nil
}
