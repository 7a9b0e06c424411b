package wal

import "os"

func writeJunkFile(path string) error {
	return os.WriteFile(path, []byte("not a wal file, just junk"), 0644)
}
