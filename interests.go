package gaea

// Interests describe which operations a registration should monitor for
// readiness. They are a subset of the readiness kinds a poll can return;
// error and hup conditions are always reported by the kernel and cannot be
// registered for.
//
// Interests are combined with the bitwise or operator:
//
//	q.Register(fd, id, gaea.Readable|gaea.Writable, gaea.Level)
//
// An empty interests set is invalid; Register and Reregister return
// ErrNoInterests for it.
type Interests uint8

const (
	// Readable interest.
	Readable Interests = 1 << iota
	// Writable interest.
	Writable
)

// IsReadable returns true if the interests include readable.
func (i Interests) IsReadable() bool { return i&Readable != 0 }

// IsWritable returns true if the interests include writable.
func (i Interests) IsWritable() bool { return i&Writable != 0 }

func (i Interests) String() string {
	switch {
	case i.IsReadable() && i.IsWritable():
		return "READABLE|WRITABLE"
	case i.IsReadable():
		return "READABLE"
	case i.IsWritable():
		return "WRITABLE"
	default:
		return "(empty)"
	}
}
