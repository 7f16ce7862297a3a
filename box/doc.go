// Package box provides Box, a single-owner pointer to a value stored in
// allocator-managed memory.
//
// # Overview
//
// A Box places one value in storage obtained from an alloc.Allocator and
// destroys and releases it exactly once when ownership ends. Go has no
// destructors, so ownership ends with an explicit Drop, normally deferred
// right after construction:
//
//	b, err := box.New(arena, Point{X: 1, Y: 2})
//	if err != nil {
//	    return err // errors.Is(err, box.ErrAlloc)
//	}
//	defer b.Drop()
//
//	b.AsMut().X = 10
//	fmt.Println(b.Get())
//
// # Representation
//
// A Box is a tagptr.Ptr plus the allocator that owns its storage. The tag
// bit is the released flag: clear while the Box must destroy and release
// its storage, set once that responsibility is gone (after Drop, Leak or
// IntoRaw). Zero-size values never allocate; their Box starts out released
// with a null address.
//
// Payload storage is invisible to the garbage collector, so T must not
// contain Go pointers (no pointers, strings, slices, maps, channels,
// functions or interfaces). New panics on such types.
//
// # Destructors and clones
//
// If *T implements Dropper, Drop calls it in place before releasing the
// storage. If *T implements Cloner[T], TryClone uses it; otherwise the value
// is copied bitwise.
//
// # Manual ownership
//
// Leak, Unleak, IntoRaw and FromRaw move destruction responsibility in and
// out of a Box for callers building their own ownership graphs. They are
// unchecked: the caller guarantees that exactly one owner ends up
// responsible for every allocation.
//
// # Views
//
// Upcast turns a Box[T] into a Dyn[I], an owning view through an interface
// that *T implements. UpcastArray turns a Box of [N]E into a Slice[E].
// NewSlice builds an owning Slice directly. Views keep the same storage and
// the same ownership state; the source Box is consumed.
package box
