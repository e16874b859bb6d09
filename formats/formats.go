// SPDX-License-Identifier: EPL-2.0

// Package formats wires every bundled decoder into an audio.Registry.
package formats

import (
	"github.com/ik5/audpool/audio"
	"github.com/ik5/audpool/formats/aiff"
	"github.com/ik5/audpool/formats/mp3"
	"github.com/ik5/audpool/formats/vorbis"
	"github.com/ik5/audpool/formats/wav"
)

// NewRegistry returns a registry that understands wav, mp3, ogg and aiff clips.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register(wav.Decoder{}, "wav", "wave")
	reg.Register(mp3.Decoder{}, "mp3")
	reg.Register(vorbis.Decoder{}, "ogg", "oga")
	reg.Register(aiff.Decoder{}, "aiff", "aif")
	return reg
}
