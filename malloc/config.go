package malloc

import "fmt"

import s "github.com/bnclabs/gosettings"

// Alignment minslab and maxslab should be multiples of Alignment.
const Alignment = int64(8)

// Chunkheader bytes prefixed to every chunk, holding the owner pool.
const Chunkheader = int64(8)

// MEMUtilization is the ratio between memory handed to the application
// and memory drawn from the region.
const MEMUtilization = float64(0.95)

// Slabinterval slab sizes are generated at multiples of this.
const Slabinterval = int64(32)

// Maxpools maximum number of slab sizes allowed in an arena.
const Maxpools = int64(512)

// Maxchunks maximum number of chunks allowed in a pool.
const Maxchunks = int64(65536)

// Defaultsettings for malloc arena.
//
// "minslab" (int64, default: <minslab>)
//		Minimum size of a chunk, multiple of Alignment.
//
// "maxslab" (int64, default: <maxslab>)
//		Maximum size of a chunk, multiple of Alignment.
//
func Defaultsettings(minslab, maxslab int64) s.Settings {
	if minslab > maxslab {
		panic(fmt.Errorf("minslab(%v) > maxslab(%v)", minslab, maxslab))
	}
	return s.Settings{
		"minslab": minslab,
		"maxslab": maxslab,
	}
}
