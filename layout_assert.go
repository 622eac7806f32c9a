package region

import "unsafe"

// ConcurrentState lives in an atomic.Int32 cell and RegionKind in a single
// byte; pin both sizes so a widened enum fails to compile instead of
// truncating silently.
var _ [4 - int(unsafe.Sizeof(ConcurrentState(0)))]byte
var _ [int(unsafe.Sizeof(ConcurrentState(0))) - 4]byte
var _ [1 - int(unsafe.Sizeof(RegionKind(0)))]byte
var _ [int(unsafe.Sizeof(RegionKind(0))) - 1]byte
