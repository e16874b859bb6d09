// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM primitives the playback layer is built on.
//
// # Source Interface
//
// Every decoder and processor implements Source:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 values in [-1.0, 1.0]. ReadSamples returns
// the number of values written and io.EOF once the stream is drained.
//
// # Clip Loading
//
// A Registry maps file extensions to decoders and loads whole clips into a
// Buffer, which can hand out any number of independent readers:
//
//	reg := audio.NewRegistry()
//	reg.Register(wav.Decoder{}, "wav", "wave")
//	reg.Register(vorbis.Decoder{}, "ogg")
//
//	clip, err := reg.Load("sfx/click01.wav")
//	src := clip.Source() // fresh reader each time the clip plays
//
// # Processing
//
// The Resampler converts between sample rates with cubic interpolation.
// NewPitchShifter uses the same machinery to change pitch while keeping the
// reported sample rate, which is how per-playback pitch variance is applied:
//
//	shifted, err := audio.NewPitchShifter(clip.Source(), 1.12)
//
// MonoMixer averages all channels into one and is used to fold clips with
// more than two channels down before they reach a stereo output.
package audio
