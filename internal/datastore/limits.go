package datastore

// Limits holds the size thresholds that drive encoding promotion (§4.4),
// mirrored from the runtime-settable CONFIG knobs of §6.
type Limits struct {
	HashMaxListpackEntries int
	HashMaxListpackValue   int
	ZSetMaxListpackEntries int
	ZSetMaxListpackValue   int
	SetMaxIntsetEntries    int
	SetMaxListpackEntries  int
	SetMaxListpackValue    int
	// ListMaxListpackSize is a positive entry-count cap, or one of the
	// negative sentinels -1..-5 meaning a byte-size cap of 4KiB..64KiB.
	ListMaxListpackSize int
}

// DefaultLimits matches the stock Redis defaults.
func DefaultLimits() Limits {
	return Limits{
		HashMaxListpackEntries: 128,
		HashMaxListpackValue:   64,
		ZSetMaxListpackEntries: 128,
		ZSetMaxListpackValue:   64,
		SetMaxIntsetEntries:    512,
		SetMaxListpackEntries:  128,
		SetMaxListpackValue:    64,
		ListMaxListpackSize:    128,
	}
}

// listPackByteCap converts a negative ListMaxListpackSize sentinel to a
// byte-size cap; positive values are entry-count caps handled separately.
func listPackByteCap(sentinel int) int {
	switch sentinel {
	case -1:
		return 4 << 10
	case -2:
		return 8 << 10
	case -3:
		return 16 << 10
	case -4:
		return 32 << 10
	case -5:
		return 64 << 10
	default:
		return 8 << 10
	}
}
