package ist

import (
	"time"

	"github.com/dutow/galera/internal/log"
	"github.com/dutow/galera/internal/metrics"
)

const (
	progressEveryEvents = 16
	progressEveryTime   = 10 * time.Second
)

// progressTracker throttles catch-up progress reporting to no more
// frequently than once per BOTH progressEveryEvents events AND
// progressEveryTime elapsed.
type progressTracker struct {
	total     int64
	sinceLast int64
	lastLog   time.Time
}

func newProgressTracker(total Seqno) *progressTracker {
	return &progressTracker{total: int64(total), lastLog: time.Now()}
}

func (p *progressTracker) tick(current Seqno) {
	metrics.ProgressCurrentSeqno.Set(float64(current))
	p.sinceLast++
	if p.sinceLast < progressEveryEvents || time.Since(p.lastLog) < progressEveryTime {
		return
	}
	p.sinceLast = 0
	p.lastLog = time.Now()
	log.Info("ist: receiver progress seqno=%d total=%d", current, p.total)
}
