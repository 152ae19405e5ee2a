package sysfs

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// attribute is a single numeric sysfs file. Writes of the value already in the file are skipped,
// so repeated applications of the same policy do not touch the kernel.
type attribute struct {
	path string

	mutex   sync.Mutex
	written bool
	last    int64
}

func newAttribute(path string) *attribute {
	return &attribute{path: path}
}

func (a *attribute) write(value int64) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.written && a.last == value {
		return nil
	}

	err := os.WriteFile(a.path, []byte(strconv.FormatInt(value, 10)), 0)
	if err != nil {
		a.written = false
		return errors.Wrapf(err, "failed to write %d to %s", value, a.path)
	}

	a.written = true
	a.last = value
	return nil
}

// forget makes the next write go through even if the value is unchanged
func (a *attribute) forget() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.written = false
}

func readInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read %s", path)
	}

	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s", path)
	}
	return value, nil
}

func readUint32(path string) (uint32, error) {
	value, err := readInt(path)
	if err != nil {
		return 0, err
	}
	if value < 0 || value > int64(^uint32(0)) {
		return 0, errors.Newf("%s holds %d, which is not a valid frequency", path, value)
	}
	return uint32(value), nil
}
