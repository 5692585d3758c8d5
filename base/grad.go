package base

import (
	"runtime"

	"github.com/sugarme/gotch/ts"
)

// WithoutGrad runs fn with gradient tracking off and restores the previous
// mode afterwards. Grad mode is per OS thread in libtorch, so the calling
// goroutine stays on its thread while fn runs.
//
// Unlike ts.NoGrad it nests: an inner call does not re-enable tracking.
func WithoutGrad(fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prev := ts.MustGradSetEnabled(false)
	defer ts.MustGradSetEnabled(prev)

	fn()
}
