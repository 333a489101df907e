package block

// Payload is a volatile data holder for a block's raw samples. It may be
// observed before it has been populated: IsValid reports a monotone
// invalid -> valid transition that never reverts.
type Payload interface {
	// IsValid reports whether this payload has been populated by a loader.
	// Once true, it stays true for the lifetime of the payload.
	IsValid() bool
	// Bytes exposes the raw sample bytes. Callers must not retain the
	// returned slice past IsValid() becoming true for a *different*
	// payload instance swapped into the same Block.
	Bytes() []byte
}

// Block is a 3D rectangular tile of a single mipmap level: the cache's
// unit of residency.
type Block struct {
	Dims    [3]int
	Origin  [3]int64
	Payload Payload
}
