package api

import "errors"

// ErrorOutofMemory extension request would exceed the region's fixed
// limit. Permanent for that request: the region only grows, freeing
// chunks elsewhere does not raise the limit.
var ErrorOutofMemory = errors.New("heap.outofmemory")
