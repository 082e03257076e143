package pack

import (
	"bytes"
	"strings"
	"testing"
)

func TestElementSizeTinyNumbers(t *testing.T) {
	for _, s := range []string{"0", "1", "52", "127"} {
		if got := elementSize(String(s)); got != 2 {
			t.Errorf("elementSize(%q) = %d, want 2", s, got)
		}
	}
}

func TestElementSizeTinyStrings(t *testing.T) {
	cases := map[string]int{"a": 3, "ab": 4, "abc": 5, "abcdefg": 9}
	for s, want := range cases {
		if got := elementSize(String(s)); got != want {
			t.Errorf("elementSize(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestWriteEmptyString(t *testing.T) {
	p := &Pack{}
	p.Append(String(""))
	if p.Len() != 1 {
		t.Fatalf("len = %d, want 1", p.Len())
	}
	it := p.Iter()
	ref, ok := it.Next()
	if !ok {
		t.Fatal("expected a value")
	}
	if s, _ := ref.Slice(); len(s) != 0 {
		t.Fatalf("expected empty slice, got %q", s)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected iterator to be exhausted")
	}
}

func TestWriteTinyNumber(t *testing.T) {
	p := &Pack{}
	p.Append(String("0"))
	if !bytes.Equal(p.data, []byte{0x00, 0x01}) {
		t.Fatalf("data = %x", p.data)
	}
	if p.Len() != 1 {
		t.Fatalf("len = %d, want 1", p.Len())
	}

	p = &Pack{}
	p.Append(String("6"))
	p.Append(String("8"))
	if !bytes.Equal(p.data, []byte{0x06, 0x01, 0x08, 0x01}) {
		t.Fatalf("data = %x", p.data)
	}
	if p.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Len())
	}
}

func TestReadTinyNumber(t *testing.T) {
	p := &Pack{}
	p.Append(String("0"))
	ref, next, ok := readElement(p.data, 0)
	if !ok || next != 2 {
		t.Fatalf("read(0) = %v, %d, %v", ref, next, ok)
	}
	if i, _ := ref.Int(); i != 0 {
		t.Fatalf("want 0, got %d", i)
	}
	if _, _, ok := readElement(p.data, 2); ok {
		t.Fatal("expected no element at end")
	}

	p = &Pack{}
	p.Append(String("6"))
	p.Append(String("8"))
	ref, next, ok = readElement(p.data, 0)
	if !ok || next != 2 {
		t.Fatalf("read(0) = %v, %d, %v", ref, next, ok)
	}
	if i, _ := ref.Int(); i != 6 {
		t.Fatalf("want 6, got %d", i)
	}
	ref, next, ok = readElement(p.data, 2)
	if !ok || next != 4 {
		t.Fatalf("read(2) = %v, %d, %v", ref, next, ok)
	}
	if i, _ := ref.Int(); i != 8 {
		t.Fatalf("want 8, got %d", i)
	}
}

func TestReadTinyNumberWith7thBitSet(t *testing.T) {
	p := &Pack{}
	p.Append(String("123"))
	ref, next, ok := readElement(p.data, 0)
	if !ok || next != 2 {
		t.Fatalf("read(0) = %v, %d, %v", ref, next, ok)
	}
	if i, _ := ref.Int(); i != 123 {
		t.Fatalf("want 123, got %d", i)
	}
}

func TestWrite13BitNumber(t *testing.T) {
	p := &Pack{}
	p.Append(String("128"))
	p.Append(String("-1"))
	want := []byte{0xc0, 0x80, 0x02, 0xdf, 0xff, 0x02}
	if !bytes.Equal(p.data, want) {
		t.Fatalf("data = %x, want %x", p.data, want)
	}
}

func TestRead13BitNumber(t *testing.T) {
	p := &Pack{}
	p.Append(String("128"))
	p.Append(String("-1"))
	ref, next, ok := readElement(p.data, 0)
	if !ok || next != 3 {
		t.Fatalf("read(0) = %v, %d, %v", ref, next, ok)
	}
	if i, _ := ref.Int(); i != 128 {
		t.Fatalf("want 128, got %d", i)
	}
	ref, next, ok = readElement(p.data, 3)
	if !ok || next != 6 {
		t.Fatalf("read(3) = %v, %d, %v", ref, next, ok)
	}
	if i, _ := ref.Int(); i != -1 {
		t.Fatalf("want -1, got %d", i)
	}
}

func TestWriteTinyString(t *testing.T) {
	p := &Pack{}
	p.Append(String("abc"))
	p.Append(String("de"))
	want := append([]byte{0x83}, "abc\x04\x82de\x03"...)
	if !bytes.Equal(p.data, want) {
		t.Fatalf("data = %x, want %x", p.data, want)
	}
}

func TestWriteMediumStringOneByteBackLen(t *testing.T) {
	value := strings.Repeat("x", 64)
	p := &Pack{}
	p.Append(String(value))
	if len(p.data) != 67 {
		t.Fatalf("len = %d, want 67", len(p.data))
	}
	if !bytes.Equal(p.data[0:2], []byte{0xe0, 0x40}) {
		t.Fatalf("header = %x", p.data[0:2])
	}
	if string(p.data[2:66]) != value {
		t.Fatal("payload mismatch")
	}
	if p.data[66] != 0x42 {
		t.Fatalf("back-len byte = %x, want 0x42", p.data[66])
	}
}

func TestWriteMediumStringTwoByteBackLen(t *testing.T) {
	value := strings.Repeat("x", 128)
	p := &Pack{}
	p.Append(String(value))
	if len(p.data) != 132 {
		t.Fatalf("len = %d, want 132", len(p.data))
	}
	if !bytes.Equal(p.data[0:2], []byte{0xe0, 0x80}) {
		t.Fatalf("header = %x", p.data[0:2])
	}
	if !bytes.Equal(p.data[130:132], []byte{0x02, 0x81}) {
		t.Fatalf("back-len = %x", p.data[130:132])
	}
}

func TestIterForwardBackwardAgree(t *testing.T) {
	p := &Pack{}
	values := []string{"hello", "128", "-1", strings.Repeat("y", 100), "3.5"}
	for _, v := range values {
		p.Append(Bytes([]byte(v)))
	}

	var forward []string
	it := p.Iter()
	for {
		ref, ok := it.Next()
		if !ok {
			break
		}
		forward = append(forward, string(ref.Bytes()))
	}

	var backward []string
	it = p.Iter()
	for {
		ref, ok := it.NextBack()
		if !ok {
			break
		}
		backward = append(backward, string(ref.Bytes()))
	}
	for i, j := 0, len(backward)-1; i < j; i, j = i+1, j-1 {
		backward[i], backward[j] = backward[j], backward[i]
	}

	if len(forward) != len(values) || len(backward) != len(values) {
		t.Fatalf("forward=%v backward=%v", forward, backward)
	}
	for i := range values {
		if forward[i] != values[i] || backward[i] != values[i] {
			t.Fatalf("mismatch at %d: forward=%q backward=%q want=%q", i, forward[i], backward[i], values[i])
		}
	}
}

func TestCursorInsertAndRemove(t *testing.T) {
	p := &Pack{}
	p.Append(String("a"))
	p.Append(String("c"))

	c := p.Cursor(EdgeLeft)
	c.Skip(1)
	c.Insert(String("b"))

	var got []string
	it := p.Iter()
	for {
		ref, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, string(ref.Bytes()))
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	c = p.Cursor(EdgeLeft)
	c.Skip(1)
	c.Remove(1)
	if p.Len() != 2 {
		t.Fatalf("len after remove = %d, want 2", p.Len())
	}
}

func TestCursorReplace(t *testing.T) {
	p := &Pack{}
	p.Append(String("short"))
	p.Append(String("x"))

	c := p.Cursor(EdgeLeft)
	c.Replace(String(strings.Repeat("y", 100)))
	c.Skip(1)
	ref, ok := c.Peek()
	if !ok {
		t.Fatal("expected second value")
	}
	if s, _ := ref.Slice(); string(s) != "x" {
		t.Fatalf("second value = %q, want x", s)
	}
}

func TestMv(t *testing.T) {
	p := &Pack{}
	p.Append(String("a"))
	p.Append(String("b"))
	p.Append(String("c"))

	p.Mv(EdgeLeft)
	var got []string
	it := p.Iter()
	for {
		ref, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, string(ref.Bytes()))
	}
	want := []string{"b", "c", "a"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPackEqCrossKind(t *testing.T) {
	str := sliceRef([]byte("12"))
	if !PackEq(str, floatRef(12)) {
		t.Error("slice 12 should equal float 12")
	}
	if !PackEq(str, intRef(12)) {
		t.Error("slice 12 should equal int 12")
	}
	if !PackEq(floatRef(12), str) {
		t.Error("float 12 should equal slice 12")
	}
	if !PackEq(intRef(12), floatRef(12)) {
		t.Error("int 12 should equal float 12")
	}
	if PackEq(floatRef(12.5), intRef(12)) {
		t.Error("12.5 should not equal 12")
	}
}

func TestSplit(t *testing.T) {
	p := &Pack{}
	for _, v := range []string{"a", "b", "c", "d"} {
		p.Append(String(v))
	}
	c := p.Cursor(EdgeLeft)
	c.Skip(2)
	right := c.Split()

	if p.Len() != 2 || right.Len() != 2 {
		t.Fatalf("left=%d right=%d, want 2/2", p.Len(), right.Len())
	}

	ref, _, _ := readElement(right.data, 0)
	if s, _ := ref.Slice(); string(s) != "c" {
		t.Fatalf("right[0] = %q, want c", s)
	}
}
