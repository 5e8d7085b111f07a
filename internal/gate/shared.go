package gate

import (
	"fmt"
	"unsafe"

	"github.com/rocketscienceinc/gridcapture/internal/apperror"
)

// syncLayout is the content of the synchronisation segment.
type syncLayout struct {
	changesAvailable uint32
	renderDone       uint32
	turnstile        uint32
	stateLock        uint32
	readerMutex      uint32
	readerCount      uint32
}

// SharedSize is the number of bytes the synchronisation segment must hold.
const SharedSize = int(unsafe.Sizeof(syncLayout{}))

// Shared exposes the primitives stored in a synchronisation segment.
type Shared struct {
	layout *syncLayout
}

func layoutOf(mem []byte) (*syncLayout, error) {
	if len(mem) < SharedSize {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", apperror.ErrSegmentTooSmall, len(mem), SharedSize)
	}

	return (*syncLayout)(unsafe.Pointer(&mem[0])), nil
}

// InitShared - initialises the primitives in mem. The creator holds write access
// on return and must call Gate().ReleaseWrite() once other processes may read.
func InitShared(mem []byte) (*Shared, error) {
	layout, err := layoutOf(mem)
	if err != nil {
		return nil, err
	}

	*layout = syncLayout{
		turnstile:   1,
		readerMutex: 1,
	}

	return &Shared{layout: layout}, nil
}

// AttachShared - wraps primitives that another process initialised.
func AttachShared(mem []byte) (*Shared, error) {
	layout, err := layoutOf(mem)
	if err != nil {
		return nil, err
	}

	return &Shared{layout: layout}, nil
}

// Gate - returns the readers-writer gate stored in the segment.
func (that *Shared) Gate() *Gate {
	return New(
		NewSharedSemaphore(&that.layout.turnstile),
		NewSharedSemaphore(&that.layout.stateLock),
		NewSharedSemaphore(&that.layout.readerMutex),
		&that.layout.readerCount,
	)
}

// Notification - returns both ends of the change notification pair stored in the segment.
func (that *Shared) Notification() (*Notifier, *Listener) {
	return NewNotification(
		NewSharedSemaphore(&that.layout.changesAvailable),
		NewSharedSemaphore(&that.layout.renderDone),
	)
}
