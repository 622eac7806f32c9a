// Package region implements a per-region memory management core: a runtime
// that partitions a heap into independent regions, each an owned container
// of objects with one designated entry point. Regions come in three
// disciplines - Arena, Trace, and Reference-Counted (Rc) - and this package
// allocates, traces, reclaims, and concurrently garbage-collects them while
// preserving the single-owner property of each region.
//
// The exported surface (CreateFreshRegion, OpenRegion, CloseRegion,
// Allocate, Incref, Decref, RegionCollect, RegionRelease, Merge, Freeze, and
// the ExternalRef operations) is the only way callers touch the engine.
// Everything else in this package is collector-internal state reached only
// through that surface.
package region
