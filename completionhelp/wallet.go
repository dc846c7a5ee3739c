/*
Package completionhelp has the helpers of the shell completion of the CLI.
*/
package completionhelp

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// WalletExt is the file extension of the wallet stores.
const WalletExt = ".bolt"

// Wallets returns the names of the wallets in the dbDir.
func Wallets(dbDir string) (names []string) {
	defer err2.Catch(func(err error) {
		_, _ = fmt.Fprintln(os.Stderr, err)
	})

	files := try.To1(filepath.Glob(filepath.Join(dbDir, "*"+WalletExt)))
	names = make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(filepath.Base(f), WalletExt))
	}
	sort.Strings(names)
	return names
}
