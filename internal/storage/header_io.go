package storage

import "os"

// openForHeaderRead opens path read-only purely to read the 13-byte
// database header, which lives before page 0 and is therefore never
// touched by the frame manager's cache.
func openForHeaderRead(path string) (*os.File, error) {
	return os.Open(path)
}

// writeHeaderBytes overwrites the header at the front of path.
func writeHeaderBytes(path string, buf []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteAt(buf, 0)
	return err
}
