package bolt

import (
	"path/filepath"
	"testing"

	"github.com/nonibytes/tarpit/tarpit/storage"
	"github.com/nonibytes/tarpit/tarpit/storage/storagetest"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tarpit.bolt")
	storagetest.RoundTrip(t, func() storage.Adapter { return New(path) })
}
