package decode

import "sync/atomic"

// atomicBool is a tiny thread-safe flag. decodebin's "deep-element-added"
// signal fires on whatever goroutine GStreamer drives the pipeline from,
// which is not necessarily the one that later calls Handle methods.
type atomicBool struct{ v atomic.Bool }

func (b *atomicBool) set(val bool) { b.v.Store(val) }
func (b *atomicBool) get() bool    { return b.v.Load() }
