package heap

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Defaultsettings for heap bridge.
//
// "capacity" (int64, default: freeRAM / 8)
//		Size of the heap region reserved at boot, in bytes. Ignored
//		by NewBridgeFrom, where the supplied buffer governs.
//
// "isrstack.reserve" (int64, default: 0)
//		Bytes kept out of reach at the top of the region, the way an
//		interrupt stack is carved off the top of the heap area.
//
// "oom.policy" (string, default: "errno")
//		Behavior on extension failure, one of "errno", "hook",
//		"hardstop".
//
// "accounting" (bool, default: false)
//		Wrap the attached allocator with call/byte accounting.
//
func Defaultsettings() s.Settings {
	_, _, free := getsysmem()
	capacity := int64(free / 8)
	if capacity > Maxregionsize {
		capacity = Maxregionsize
	}
	return s.Settings{
		"capacity":         capacity,
		"isrstack.reserve": int64(0),
		"oom.policy":       "errno",
		"accounting":       false,
	}
}

func (b *Bridge) readsettings(setts s.Settings) {
	b.capacity = setts.Int64("capacity")
	b.reserve = setts.Int64("isrstack.reserve")
	b.policy = string2policy(setts.String("oom.policy"))
	b.accounting = setts.Bool("accounting")
	b.setts = setts
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}
