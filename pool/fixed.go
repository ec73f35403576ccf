package pool

// fixedBacklogSize bounds the overflow buffer fixed uses when more workers
// are in flight than capacity allows to be tracked in all.
const fixedBacklogSize = 1024

// fixed is a Pool capped at a fixed number of concurrently-borrowed values.
// It backs task.NewFixedExecutor, whose Submit starts one goroutine per call
// and has each of them borrow a value from this pool before running its
// callback.
type fixed struct {
	available chan interface{}
	all       chan interface{}
	buf       chan interface{}
	newFn     func() interface{}
}

// NewFixed returns a Pool that creates at most capacity values via newFn,
// reusing them across Get/Put instead of growing without bound.
func NewFixed(capacity uint, newFn func() interface{}) Pool {
	return &fixed{
		available: make(chan interface{}, capacity),
		all:       make(chan interface{}, capacity),
		buf:       make(chan interface{}, fixedBacklogSize),
		newFn:     newFn,
	}
}

func (p *fixed) Get() interface{} {
	select {
	case el := <-p.available:
		return el

	case el := <-p.buf:
		return el

	default:
		var el interface{}

		if len(p.all) < cap(p.all) {
			el = p.newFn()
		} else {
			el = <-p.all
		}

		select {
		case p.all <- el:
		case p.buf <- el:
		default:
		}
		return el
	}
}

func (p *fixed) Put(el interface{}) {
	select {
	case p.available <- el:
	case p.all <- el:
	case p.buf <- el:
	default:
	}
}

func (p *fixed) capacity() uint {
	return uint(cap(p.all))
}
