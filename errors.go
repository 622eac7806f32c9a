package region

import "errors"

var (
	// ErrRegionNotOpen is returned when an operation that requires a
	// currently-open region is attempted with an empty context stack.
	ErrRegionNotOpen = errors.New("region: no region open on this context")

	// ErrWrongRegionKind is returned when an operation is attempted against
	// a region of a discipline that does not support it (e.g. incref on an
	// Arena region, or merging a Trace region into an Rc region).
	ErrWrongRegionKind = errors.New("region: operation not valid for this region's discipline")

	// ErrRegionBusy is returned by OpenRegion callers that asked for a
	// non-blocking open and found the region already Open or Collecting.
	ErrRegionBusy = errors.New("region: region is not Closed")

	// ErrExternalRefInvalid is returned by UseExternalReference when the
	// handle's target has already been freed or the caller does not
	// currently hold the owning region open.
	ErrExternalRefInvalid = errors.New("region: external reference is not valid here")

	// ErrAllocatorExhausted is returned when the underlying allocator
	// collaborator cannot satisfy a request. Callers that treat
	// out-of-memory as unrecoverable should abort on it.
	ErrAllocatorExhausted = errors.New("region: underlying allocator returned no memory")

	// ErrFrozen is returned when a mutation is attempted against a frozen
	// (immortal, read-only) trace region.
	ErrFrozen = errors.New("region: region is frozen")

	// ErrRegionNotAlive is returned when an operation targets a region
	// whose logical life has already ended via RegionRelease.
	ErrRegionNotAlive = errors.New("region: region is no longer alive")
)
