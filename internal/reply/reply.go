// Package reply implements the reply algebra of §4.11: the set of values a
// command executor can hand to a client's replier, independent of which
// RESP protocol version eventually serializes them.
package reply

// Kind discriminates the members of the reply algebra.
type Kind int

const (
	KindNil Kind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindBignum
	KindArray
	KindSet
	KindMap
	KindPush
	KindDeferredArray
	KindDeferredSet
	KindDeferredMap
	KindBulk
	KindVerbatim
	KindStatus
	KindError
)

// Reply is one value of the algebra. Exactly the fields relevant to Kind
// are meaningful.
type Reply struct {
	Kind Kind

	Bool    bool
	Int     int64
	Float   float64
	Bytes   []byte // Bignum (decimal text), Bulk, Status payloads
	Format  string // Verbatim's 3-byte format ("txt", "mkd", ...)
	Len     int    // Array/Set/Map/Push length
	Deferred chan int // DeferredArray/Set/Map: sent exactly once, the final count

	ErrTyped string // error kind prefix, e.g. "WRONGTYPE"
	ErrMsg   string
}

func Nil() Reply { return Reply{Kind: KindNil} }

func Boolean(b bool) Reply { return Reply{Kind: KindBoolean, Bool: b} }

func Integer(i int64) Reply { return Reply{Kind: KindInteger, Int: i} }

func Double(f float64) Reply { return Reply{Kind: KindDouble, Float: f} }

// Bignum carries an arbitrary-precision integer already rendered as
// decimal text (this implementation never computes bignums itself, but
// the algebra supports replies that do).
func Bignum(decimal []byte) Reply { return Reply{Kind: KindBignum, Bytes: decimal} }

func Array(n int) Reply { return Reply{Kind: KindArray, Len: n} }

func Set(n int) Reply { return Reply{Kind: KindSet, Len: n} }

func Map(n int) Reply { return Reply{Kind: KindMap, Len: n} }

func Push(n int) Reply { return Reply{Kind: KindPush, Len: n} }

// DeferredArray returns a placeholder reply plus the channel its eventual
// length must be sent on exactly once, per §4.11's deferred-length
// mechanism.
func DeferredArray() (Reply, chan int) {
	ch := make(chan int, 1)
	return Reply{Kind: KindDeferredArray, Deferred: ch}, ch
}

func DeferredSet() (Reply, chan int) {
	ch := make(chan int, 1)
	return Reply{Kind: KindDeferredSet, Deferred: ch}, ch
}

func DeferredMap() (Reply, chan int) {
	ch := make(chan int, 1)
	return Reply{Kind: KindDeferredMap, Deferred: ch}, ch
}

func Bulk(b []byte) Reply { return Reply{Kind: KindBulk, Bytes: b} }

func Verbatim(format string, b []byte) Reply {
	return Reply{Kind: KindVerbatim, Format: format, Bytes: b}
}

func Status(s string) Reply { return Reply{Kind: KindStatus, Bytes: []byte(s)} }

// Error builds a typed error reply, e.g. Error("WRONGTYPE", "Operation
// against a key holding the wrong kind of value").
func Error(typed, msg string) Reply { return Reply{Kind: KindError, ErrTyped: typed, ErrMsg: msg} }

// Common typed errors, named by what they report rather than by a spec
// tag, so callers read naturally at use sites.
func WrongType() Reply {
	return Error("WRONGTYPE", "Operation against a key holding the wrong kind of value")
}

func WrongArgCount(cmd string) Reply {
	return Error("ERR", "wrong number of arguments for '"+cmd+"' command")
}

func SyntaxError() Reply { return Error("ERR", "syntax error") }

func NotInteger() Reply {
	return Error("ERR", "value is not an integer or out of range")
}

func NotFloat() Reply {
	return Error("ERR", "value is not a valid float")
}

func UnknownCommand(cmd string) Reply {
	return Error("ERR", "unknown command '"+cmd+"'")
}

func NoProto() Reply {
	return Error("NOPROTO", "unsupported protocol version")
}
