package start

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dutow/galera/internal/config"
	"github.com/dutow/galera/ist"
)

// fileCache is a minimal donor-side ist.Cache backed by a directory of
// one file per seqno (named "<seqno>.ws"), standing in for the real
// certification index and write-set store the way the teacher's own
// replication package treats the WAL it replays from as an external
// collaborator it only reads sequentially.
type fileCache struct {
	mu  sync.Mutex
	dir string
}

func newFileCache(cfg *config.Config) *fileCache {
	dir := cfg.CacheDir
	if dir == "" {
		dir = "./ist-cache"
	}
	return &fileCache{dir: dir}
}

func (c *fileCache) Lock()   { c.mu.Lock() }
func (c *fileCache) Unlock() { c.mu.Unlock() }

func (c *fileCache) SeqnoGetBuffers(dst []ist.CacheBuffer, first ist.Seqno) (int, error) {
	n := 0
	for seqno := first; n < len(dst); seqno++ {
		path := filepath.Join(c.dir, fmt.Sprintf("%d.ws", int64(seqno)))
		payload, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return n, err
		}
		dst[n] = ist.CacheBuffer{Seqno: seqno, Type: ist.ActionWriteset, Payload: payload}
		n++
	}
	return n, nil
}
