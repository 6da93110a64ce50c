//go:build debug
// +build debug

package malloc

import "unsafe"

// poison fresh chunks so reads of uninitialized memory show up.
func initblock(block unsafe.Pointer, size int64) {
	dst := unsafe.Slice((*byte)(block), size)
	for i := range dst {
		dst[i] = 0xff
	}
}
