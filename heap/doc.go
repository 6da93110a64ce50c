// Package heap bridges a cooperative multitasking runtime and a
// malloc-style allocator onto one bounded memory region, with a
// limited scope:
//
//  * The region is fixed at boot, its boundary only ever advances;
//    memory claimed from the region is never returned.
//  * Extension requests, the program-break primitive, are serialized
//    by suspending task switching for the duration of the request.
//  * Two named locks are supplied for the downstream allocator: the
//    allocator lock around malloc/free critical sections, and an
//    independent environment lock for global environment storage.
//  * Neither lock, nor any allocation path, may be entered from an
//    interrupt context; doing so is fatal by design.
//  * Exhausting the region runs a configured out-of-memory policy:
//    set the task's error indicator, call a registered hook, or halt.
//
// The bridge never chooses how memory is split or reused; that is the
// downstream allocator's job. It only answers "give me N more
// contiguous bytes from the reserved region, or tell me you can't".
package heap
