//go:build !sqlite

package runstore

import "fmt"

func newSQLiteStore(_ string) (Store, error) {
	return nil, fmt.Errorf("runstore: sqlite backend unavailable in this build; rebuild with -tags sqlite")
}
