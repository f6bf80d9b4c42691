package csvload

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/coldb/coldb/pkg/tderr"
)

// mmapReadOnly maps path read-only with sequential-access advice (spec
// §4.5 step 1). The returned unmap func must be called exactly once; the
// loader never returns an mmap-backed column (spec: "the file mapping is
// unmapped before return"), so this stays entirely internal to csvload.
func mmapReadOnly(path string) (data []byte, unmap func() error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := fi.Size()
	if size == 0 {
		return nil, func() error { return nil }, nil
	}

	data, err = unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, tderr.Wrap(tderr.KindIO, err, "csvload: mmap %s", path)
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return data, func() error { return unix.Munmap(data) }, nil
}
