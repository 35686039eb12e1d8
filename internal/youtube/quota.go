package youtube

import (
	"sync/atomic"

	"github.com/checktube/check-bot/internal/platform/observability"
)

// Estimated YouTube Data API quota costs per call.
const (
	unitCostList   = 1
	unitCostInsert = 50
)

// Recorder accumulates the quota units the client has spent. It is passed
// into the client explicitly so usage is observable from one place instead
// of an ambient counter mutated across call sites.
type Recorder struct {
	units atomic.Int64
}

// NewRecorder returns an empty usage recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add records n spent quota units.
func (r *Recorder) Add(n int64) {
	r.units.Add(n)
	observability.QuotaUnits.Add(float64(n))
}

// Units returns the total units recorded so far.
func (r *Recorder) Units() int64 {
	return r.units.Load()
}
