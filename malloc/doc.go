// Package malloc supplies the downstream allocator the heap bridge
// forwards to, standing in for a C library's malloc family, with a
// limited scope:
//
//  * Backing memory comes only from an api.Grower, the bridge's
//    program-break primitive; never directly from the OS.
//  * The bridge's allocator lock is taken around every Alloc and Free,
//    so arena internals and the region boundary share one critical
//    section.
//  * Memory is organized as pools of equal sized chunks; chunks freed
//    by the application go back to their pool's free list, pool memory
//    is never returned to the region.
//  * Each chunk carries an owner-pool header, so Free and Slabsize
//    work from the bare pointer.
//  * Memory-chunks allocated by this package will always be 64-bit
//    aligned.
//
// Applications are allowed to allocate chunks whose size fall between
// a pre-configured minimum and maximum slab size, supplied while
// instantiating a new arena.
package malloc
