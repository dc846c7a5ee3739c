package completionhelp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lainio/err2/assert"
)

func TestWallets(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	dir := t.TempDir()
	for _, f := range []string{"bob.bolt", "alice.bolt", "alice.bolt_backup", "notes.txt"} {
		assert.NoError(os.WriteFile(filepath.Join(dir, f), nil, 0o600))
	}
	names := Wallets(dir)
	assert.Equal(len(names), 2)
	assert.Equal(names[0], "alice")
	assert.Equal(names[1], "bob")

	assert.Equal(len(Wallets(filepath.Join(dir, "missing"))), 0)
}
