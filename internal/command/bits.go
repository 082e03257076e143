package command

import (
	"strconv"
	"strings"

	"vredis/internal/bytesutil"
	"vredis/internal/datastore"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "getbit", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execGetBit})
	register(&Descriptor{Name: "setbit", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execSetBit})
	register(&Descriptor{Name: "bitcount", Arity: -2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execBitCount})
	register(&Descriptor{Name: "bitpos", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execBitPos})
	register(&Descriptor{Name: "bitop", Arity: -4, KeyLayout: KeyLayout{Kind: KeyAll}, Write: true, Executor: execBitOp})
	register(&Descriptor{Name: "bitfield", Arity: -2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execBitField})
}

func stringBytes(ctx *ExecContext, key []byte) ([]byte, bool, Result) {
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	if !ok {
		return nil, false, Ok()
	}
	s, isStr := v.(*datastore.StringValue)
	if !isStr {
		return nil, false, Fail(reply.WrongType())
	}
	return s.Bytes(), true, Ok()
}

func execGetBit(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	offB, _ := ctx.Request.Pop()
	offset, ok := bytesutil.ParseI64Exact(offB)
	if !ok || offset < 0 {
		return Fail(reply.Error("ERR", "bit offset is not an integer or out of range"))
	}
	b, present, res := stringBytes(ctx, key)
	if res.Outcome == Errored {
		return res
	}
	if !present {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	byteIdx := int(offset / 8)
	if byteIdx >= len(b) {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	bit := (b[byteIdx] >> (7 - uint(offset%8))) & 1
	ctx.Client.Send(reply.Integer(int64(bit)))
	return Ok()
}

func execSetBit(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	offB, _ := ctx.Request.Pop()
	valB, _ := ctx.Request.Pop()
	offset, ok := bytesutil.ParseI64Exact(offB)
	if !ok || offset < 0 {
		return Fail(reply.Error("ERR", "bit offset is not an integer or out of range"))
	}
	val, ok := bytesutil.ParseI64Exact(valB)
	if !ok || (val != 0 && val != 1) {
		return Fail(reply.Error("ERR", "bit is not an integer or out of range"))
	}

	b, _, res := stringBytes(ctx, key)
	if res.Outcome == Errored {
		return res
	}
	byteIdx := int(offset / 8)
	if byteIdx >= len(b) {
		grown := make([]byte, byteIdx+1)
		copy(grown, b)
		b = grown
	}
	bitMask := byte(1) << (7 - uint(offset%8))
	old := byte(0)
	if b[byteIdx]&bitMask != 0 {
		old = 1
	}
	if val == 1 {
		b[byteIdx] |= bitMask
	} else {
		b[byteIdx] &^= bitMask
	}
	ctx.DB.Overwrite(key, datastore.NewString(b), ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(int64(old)))
	return Ok()
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

func bitRange(length int, startB, endB []byte, bitUnit bool) (int, int, bool) {
	totalBits := length * 8
	unit := length
	if bitUnit {
		unit = totalBits
	}
	start64, ok := bytesutil.ParseI64Exact(startB)
	if !ok {
		return 0, 0, false
	}
	end64, ok := bytesutil.ParseI64Exact(endB)
	if !ok {
		return 0, 0, false
	}
	start, end := clampRange(int(start64), int(end64), unit)
	return start, end, true
}

func execBitCount(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	b, _, res := stringBytes(ctx, key)
	if res.Outcome == Errored {
		return res
	}

	startB, hasStart := ctx.Request.Pop()
	endB, hasEnd := ctx.Request.Pop()
	bitUnit := false
	if unitB, more := ctx.Request.Pop(); more {
		switch strings.ToUpper(string(unitB)) {
		case "BYTE":
		case "BIT":
			bitUnit = true
		default:
			return Fail(reply.SyntaxError())
		}
	}

	if !hasStart && !hasEnd {
		total := 0
		for _, by := range b {
			total += popcount(by)
		}
		ctx.Client.Send(reply.Integer(int64(total)))
		return Ok()
	}
	if hasStart != hasEnd {
		return Fail(reply.SyntaxError())
	}

	if bitUnit {
		start, end, ok := bitRange(len(b), startB, endB, true)
		if !ok {
			return Fail(reply.NotInteger())
		}
		total := 0
		if end >= start {
			for i := start; i <= end; i++ {
				byteIdx := i / 8
				if byteIdx >= len(b) {
					break
				}
				if b[byteIdx]&(1<<(7-uint(i%8))) != 0 {
					total++
				}
			}
		}
		ctx.Client.Send(reply.Integer(int64(total)))
		return Ok()
	}

	start, end, ok := bitRange(len(b), startB, endB, false)
	if !ok {
		return Fail(reply.NotInteger())
	}
	total := 0
	if end >= start && len(b) > 0 {
		for i := start; i <= end && i < len(b); i++ {
			total += popcount(b[i])
		}
	}
	ctx.Client.Send(reply.Integer(int64(total)))
	return Ok()
}

func bitAt(b []byte, bitIdx int) int {
	byteIdx := bitIdx / 8
	if byteIdx >= len(b) {
		return 0
	}
	if b[byteIdx]&(1<<(7-uint(bitIdx%8))) != 0 {
		return 1
	}
	return 0
}

func execBitPos(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	targetB, _ := ctx.Request.Pop()
	target, ok := bytesutil.ParseI64Exact(targetB)
	if !ok || (target != 0 && target != 1) {
		return Fail(reply.Error("ERR", "The bit argument must be 1 or 0."))
	}

	b, present, res := stringBytes(ctx, key)
	if res.Outcome == Errored {
		return res
	}
	if !present {
		if target == 0 {
			ctx.Client.Send(reply.Integer(0))
		} else {
			ctx.Client.Send(reply.Integer(-1))
		}
		return Ok()
	}

	startB, hasStart := ctx.Request.Pop()
	endB, hasEnd := ctx.Request.Pop()
	bitUnit := false
	if unitB, more := ctx.Request.Pop(); more {
		switch strings.ToUpper(string(unitB)) {
		case "BYTE":
		case "BIT":
			bitUnit = true
		default:
			return Fail(reply.SyntaxError())
		}
	}

	totalBits := len(b) * 8
	var startBit, endBit int
	endGiven := hasEnd
	if !hasStart {
		startBit, endBit = 0, totalBits-1
	} else if bitUnit {
		s, e, ok := bitRange(len(b), startB, endB, true)
		if !ok {
			return Fail(reply.NotInteger())
		}
		startBit, endBit = s, e
	} else {
		s, e, ok := bitRange(len(b), startB, endB, false)
		if !ok {
			return Fail(reply.NotInteger())
		}
		startBit, endBit = s*8, e*8+7
	}
	if endBit > totalBits-1 {
		endBit = totalBits - 1
	}
	if endBit < startBit {
		ctx.Client.Send(reply.Integer(-1))
		return Ok()
	}

	for i := startBit; i <= endBit; i++ {
		if bitAt(b, i) == int(target) {
			ctx.Client.Send(reply.Integer(int64(i)))
			return Ok()
		}
	}
	if target == 0 && !endGiven {
		ctx.Client.Send(reply.Integer(int64(totalBits)))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(-1))
	return Ok()
}

func execBitOp(ctx *ExecContext) Result {
	opB, _ := ctx.Request.Pop()
	destKey, _ := ctx.Request.Pop()
	op := strings.ToUpper(string(opB))

	var sources [][]byte
	for {
		k, more := ctx.Request.Pop()
		if !more {
			break
		}
		v, ok := ctx.DB.Get(k, ctx.NowMs)
		if !ok {
			sources = append(sources, nil)
			continue
		}
		s, isStr := v.(*datastore.StringValue)
		if !isStr {
			return Fail(reply.WrongType())
		}
		sources = append(sources, s.Bytes())
	}
	if len(sources) == 0 {
		return Fail(reply.WrongArgCount("bitop"))
	}
	if op == "NOT" && len(sources) != 1 {
		return Fail(reply.Error("ERR", "BITOP NOT must be called with a single source key."))
	}

	maxLen := 0
	for _, s := range sources {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	out := make([]byte, maxLen)
	switch op {
	case "AND":
		for i := range out {
			out[i] = 0xFF
			for _, s := range sources {
				var sb byte
				if i < len(s) {
					sb = s[i]
				}
				out[i] &= sb
			}
		}
	case "OR":
		for i := range out {
			for _, s := range sources {
				if i < len(s) {
					out[i] |= s[i]
				}
			}
		}
	case "XOR":
		for i := range out {
			for _, s := range sources {
				if i < len(s) {
					out[i] ^= s[i]
				}
			}
		}
	case "NOT":
		for i := range out {
			var sb byte
			if i < len(sources[0]) {
				sb = sources[0][i]
			}
			out[i] = ^sb
		}
	default:
		return Fail(reply.SyntaxError())
	}

	if maxLen == 0 {
		ctx.DB.Remove(destKey, ctx.NowMs)
	} else {
		ctx.DB.Overwrite(destKey, datastore.NewString(out), ctx.NowMs)
	}
	ctx.Store.Touch(ctx.Client.DB(), destKey)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(int64(maxLen)))
	return Ok()
}

type bitFieldType struct {
	signed bool
	bits   int
}

func parseBitFieldType(b []byte) (bitFieldType, bool) {
	if len(b) < 2 {
		return bitFieldType{}, false
	}
	var signed bool
	switch b[0] {
	case 'i':
		signed = true
	case 'u':
		signed = false
	default:
		return bitFieldType{}, false
	}
	n, err := strconv.Atoi(string(b[1:]))
	if err != nil || n <= 0 || n > 64 || (!signed && n > 63) {
		return bitFieldType{}, false
	}
	return bitFieldType{signed: signed, bits: n}, true
}

func parseBitFieldOffset(b []byte, t bitFieldType) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	if b[0] == '#' {
		n, ok := bytesutil.ParseI64Exact(b[1:])
		if !ok || n < 0 {
			return 0, false
		}
		return n * int64(t.bits), true
	}
	n, ok := bytesutil.ParseI64Exact(b)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

func bitFieldGet(b []byte, offset int64, t bitFieldType) int64 {
	var raw uint64
	for i := 0; i < t.bits; i++ {
		bitIdx := int(offset) + i
		raw = raw<<1 | uint64(bitAt(b, bitIdx))
	}
	if !t.signed {
		return int64(raw)
	}
	shift := uint(64 - t.bits)
	return int64(raw<<shift) >> shift
}

func bitFieldSet(b []byte, offset int64, t bitFieldType, value uint64) []byte {
	needed := int((offset+int64(t.bits))+7) / 8
	if needed > len(b) {
		grown := make([]byte, needed)
		copy(grown, b)
		b = grown
	}
	for i := 0; i < t.bits; i++ {
		bitIdx := int(offset) + i
		byteIdx := bitIdx / 8
		mask := byte(1) << (7 - uint(bitIdx%8))
		bit := (value >> uint(t.bits-1-i)) & 1
		if bit == 1 {
			b[byteIdx] |= mask
		} else {
			b[byteIdx] &^= mask
		}
	}
	return b
}

func bitFieldBounds(t bitFieldType) (int64, int64) {
	if !t.signed {
		if t.bits == 64 {
			return 0, (1 << 63) - 1
		}
		return 0, (int64(1) << uint(t.bits)) - 1
	}
	max := (int64(1) << uint(t.bits-1)) - 1
	min := -(int64(1) << uint(t.bits-1))
	return min, max
}

func execBitField(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	b, _, res := stringBytes(ctx, key)
	if res.Outcome == Errored {
		return res
	}

	type op struct {
		kind   string
		t      bitFieldType
		offset int64
		value  int64
		incr   int64
		wrap   string
	}
	var ops []op
	overflow := "WRAP"
	dirty := false

	for {
		tok, more := ctx.Request.Pop()
		if !more {
			break
		}
		switch strings.ToUpper(string(tok)) {
		case "OVERFLOW":
			modeB, more := ctx.Request.Pop()
			if !more {
				return Fail(reply.SyntaxError())
			}
			mode := strings.ToUpper(string(modeB))
			switch mode {
			case "WRAP", "SAT", "FAIL":
				overflow = mode
			default:
				return Fail(reply.SyntaxError())
			}
		case "GET":
			typeB, more := ctx.Request.Pop()
			if !more {
				return Fail(reply.SyntaxError())
			}
			t, ok := parseBitFieldType(typeB)
			if !ok {
				return Fail(reply.Error("ERR", "Invalid bitfield type. Use something like i16 u8. Note that u64 is not supported but i64 is."))
			}
			offB, more := ctx.Request.Pop()
			if !more {
				return Fail(reply.SyntaxError())
			}
			off, ok := parseBitFieldOffset(offB, t)
			if !ok {
				return Fail(reply.Error("ERR", "bit offset is not an integer or out of range"))
			}
			ops = append(ops, op{kind: "GET", t: t, offset: off})
		case "SET":
			typeB, _ := ctx.Request.Pop()
			t, ok := parseBitFieldType(typeB)
			if !ok {
				return Fail(reply.Error("ERR", "Invalid bitfield type. Use something like i16 u8. Note that u64 is not supported but i64 is."))
			}
			offB, _ := ctx.Request.Pop()
			off, ok := parseBitFieldOffset(offB, t)
			if !ok {
				return Fail(reply.Error("ERR", "bit offset is not an integer or out of range"))
			}
			valB, _ := ctx.Request.Pop()
			val, ok := bytesutil.ParseI64Exact(valB)
			if !ok {
				return Fail(reply.NotInteger())
			}
			ops = append(ops, op{kind: "SET", t: t, offset: off, value: val, wrap: overflow})
		case "INCRBY":
			typeB, _ := ctx.Request.Pop()
			t, ok := parseBitFieldType(typeB)
			if !ok {
				return Fail(reply.Error("ERR", "Invalid bitfield type. Use something like i16 u8. Note that u64 is not supported but i64 is."))
			}
			offB, _ := ctx.Request.Pop()
			off, ok := parseBitFieldOffset(offB, t)
			if !ok {
				return Fail(reply.Error("ERR", "bit offset is not an integer or out of range"))
			}
			incB, _ := ctx.Request.Pop()
			inc, ok := bytesutil.ParseI64Exact(incB)
			if !ok {
				return Fail(reply.NotInteger())
			}
			ops = append(ops, op{kind: "INCRBY", t: t, offset: off, incr: inc, wrap: overflow})
		default:
			return Fail(reply.SyntaxError())
		}
	}

	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	for _, o := range ops {
		n++
		switch o.kind {
		case "GET":
			ctx.Client.Send(reply.Integer(bitFieldGet(b, o.offset, o.t)))
		case "SET":
			old := bitFieldGet(b, o.offset, o.t)
			min, max := bitFieldBounds(o.t)
			newVal := o.value
			if newVal < min || newVal > max {
				switch o.wrap {
				case "FAIL":
					ctx.Client.Send(reply.Nil())
					continue
				case "SAT":
					if newVal < min {
						newVal = min
					} else {
						newVal = max
					}
				}
			}
			b = bitFieldSet(b, o.offset, o.t, uint64(newVal)&bitMaskFor(o.t.bits))
			dirty = true
			ctx.Client.Send(reply.Integer(old))
		case "INCRBY":
			old := bitFieldGet(b, o.offset, o.t)
			min, max := bitFieldBounds(o.t)
			sum := old + o.incr
			overflowed := (o.incr > 0 && sum < old) || (o.incr < 0 && sum > old) || sum < min || sum > max
			if overflowed {
				switch o.wrap {
				case "FAIL":
					ctx.Client.Send(reply.Nil())
					continue
				case "SAT":
					if sum < min || (o.incr < 0 && sum > old) {
						sum = min
					} else {
						sum = max
					}
				case "WRAP":
					span := max - min + 1
					for sum < min {
						sum += span
					}
					for sum > max {
						sum -= span
					}
				}
			}
			b = bitFieldSet(b, o.offset, o.t, uint64(sum)&bitMaskFor(o.t.bits))
			dirty = true
			ctx.Client.Send(reply.Integer(sum))
		}
	}
	ch <- n

	if dirty {
		ctx.DB.Overwrite(key, datastore.NewString(b), ctx.NowMs)
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}
	return Ok()
}

func bitMaskFor(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (1 << uint(bits)) - 1
}
