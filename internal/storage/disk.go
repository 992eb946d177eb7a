package storage

import (
	"errors"
	"io/fs"
	"os"
)

// sqliteSidecars are the files SQLite keeps next to a database.
var sqliteSidecars = []string{"", "-wal", "-shm", "-journal"}

// databaseSize returns the bytes used by the database at dbPath and its sidecar
// files. Sidecars that do not exist count as zero.
func databaseSize(dbPath string) (int64, error) {
	if dbPath == "" || dbPath == ":memory:" {
		return 0, nil
	}
	var total int64
	for _, suffix := range sqliteSidecars {
		info, err := os.Stat(dbPath + suffix)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			return 0, err
		case info.Mode().IsRegular():
			total += info.Size()
		}
	}
	return total, nil
}
