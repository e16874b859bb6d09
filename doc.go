// SPDX-License-Identifier: EPL-2.0

// Package audpool assembles the audio playback subsystem: a resource library,
// a pool of players, a playback manager and the dynamic start detector.
//
// # Quick Start
//
// Load the configuration, build a System and issue requests by key:
//
//	cfg, err := config.Load("audpool.yaml")
//	if err != nil {
//	    return err
//	}
//	sys, err := audpool.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer sys.Close()
//
//	if err := sys.Start(); err != nil { // opens the speaker
//	    return err
//	}
//	seq, err := sys.Manager.Play(ctx, playback.Request{Key: "click01"})
//
// A request names a resource key (or, with IsGroup, a group key). The
// library resolves it, the pool hands out a free player, and the manager
// configures and starts it. When the clip ends the player goes back to the
// pool. Requests that arrive while every player is busy fail with
// pool.ErrExhausted unless the pool is allowed to expand.
//
// # Frame Updates
//
// Delays and fades advance only when the game loop calls Tick:
//
//	sys.Manager.Tick(frameTime)
//
// # Players
//
// By default players stream through the speaker with host/beepout. Any
// playback.Player implementation can be supplied instead with
// WithPlayerFactory, for example a wrapper around an engine's own audio
// voices.
//
// # Converting Clips
//
// EncodeMono16 keeps the classic offline pipeline for writing trimmed clips:
//
//	src := trimmed.Source()
//	pcm16, err := audpool.EncodeMono16(src, 16000, 4096)
//	wav.WriteWAV16(out, 16000, 1, pcm16)
//
// See the individual subpackages for more detailed documentation.
package audpool
