package sanctions

import (
	"log/slog"
	"sync/atomic"
)

// Snapshots hands out the current index generation to matching cycles.
//
// Readers call Current once per cycle and keep that reference for the
// whole cycle; a concurrent Swap never disturbs them. Superseded
// generations are reclaimed by the garbage collector once the last
// cycle holding one finishes.
type Snapshots struct {
	cur    atomic.Pointer[Index]
	logger *slog.Logger
}

// NewSnapshots creates an empty holder. Current returns nil until the
// first successful Swap; the pipeline skips matching until then.
func NewSnapshots(logger *slog.Logger) *Snapshots {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Snapshots{logger: logger}
}

// Current returns the live index generation, or nil before the first
// load.
func (s *Snapshots) Current() *Index {
	return s.cur.Load()
}

// Swap publishes a new generation. The old generation stays valid for
// any cycle already holding it.
func (s *Snapshots) Swap(ix *Index) {
	old := s.cur.Swap(ix)
	if old != nil {
		s.logger.Info("sanctions snapshot swapped",
			"old_generation", old.Generation(),
			"new_generation", ix.Generation(),
			"entities", ix.Len(),
		)
	} else {
		s.logger.Info("sanctions snapshot loaded",
			"generation", ix.Generation(),
			"entities", ix.Len(),
		)
	}
}
