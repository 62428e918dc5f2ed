package functions

type releaser interface {
	Release()
}

// owned holds a foreign buffer for the duration of one row. release is
// idempotent, so it can be deferred and also called early once the
// contents have been copied out.
type owned struct {
	r    releaser
	done bool
}

func (o *owned) release() {
	if o.done || o.r == nil {
		return
	}
	o.done = true
	o.r.Release()
}
