package reactor

import "github.com/vireolabs/reactor/internal/runtime"

// Batch runs fn with the drain held pending until fn returns, so every
// write fn makes — however many statements it spans — settles in exactly
// one flush instead of one per write. Go has no microtask queue to do this
// implicitly across statements the way a single synchronous burst does;
// Batch is what makes a multi-write burst coalesce the same way.
func Batch(fn func()) {
	runtime.Current().Batch(fn)
}
