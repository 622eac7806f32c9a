package region

// Default slab size handed to a fresh arena or object pool when the caller
// does not size one explicitly. Chosen to amortize allocator round-trips
// without holding an unreasonable amount of unused backing memory.
const defaultSlabSize = 64 * 1024

// Deep Rc cycles must not overflow the call stack: all mark-red
// / scan / collect walks use worklists sized off this hint rather than
// recursion. It only pre-sizes a slice; it is not a hard cap.
const cycleWorklistHint = 256

// The suspicious-set slice is pre-sized from this.
const suspiciousSetHint = 16
