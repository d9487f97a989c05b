package classfile

import (
	"encoding/binary"
	"math"
)

// poolBuilder assembles constant pool bytes and hands out indices.
type poolBuilder struct {
	data  []byte
	count uint16
	utf8s map[string]uint16
}

func newPoolBuilder() *poolBuilder {
	return &poolBuilder{count: 1, utf8s: map[string]uint16{}}
}

func (p *poolBuilder) add(tag ConstantTag, body ...byte) uint16 {
	idx := p.count
	p.data = append(p.data, byte(tag))
	p.data = append(p.data, body...)
	p.count++
	if tag == ConstantLong || tag == ConstantDouble {
		p.count++
	}
	return idx
}

func (p *poolBuilder) utf8(s string) uint16 {
	if idx, ok := p.utf8s[s]; ok {
		return idx
	}
	idx := p.rawUtf8([]byte(s))
	p.utf8s[s] = idx
	return idx
}

func (p *poolBuilder) rawUtf8(b []byte) uint16 {
	return p.add(ConstantUtf8, append(u2(uint16(len(b))), b...)...)
}

func (p *poolBuilder) class(name string) uint16 {
	return p.add(ConstantClass, u2(p.utf8(name))...)
}

func (p *poolBuilder) str(s string) uint16 {
	return p.add(ConstantString, u2(p.utf8(s))...)
}

func (p *poolBuilder) integer(v int32) uint16 {
	return p.add(ConstantInteger, u4(uint32(v))...)
}

func (p *poolBuilder) float(v float32) uint16 {
	return p.add(ConstantFloat, u4(math.Float32bits(v))...)
}

func (p *poolBuilder) long(v int64) uint16 {
	return p.add(ConstantLong, u8(uint64(v))...)
}

func (p *poolBuilder) double(v float64) uint16 {
	return p.add(ConstantDouble, u8(math.Float64bits(v))...)
}

func (p *poolBuilder) nameAndType(name, desc string) uint16 {
	return p.add(ConstantNameAndType, cat(u2(p.utf8(name)), u2(p.utf8(desc)))...)
}

func (p *poolBuilder) methodref(class, name, desc string) uint16 {
	c := p.class(class)
	nat := p.nameAndType(name, desc)
	return p.add(ConstantMethodref, cat(u2(c), u2(nat))...)
}

func (p *poolBuilder) bytes() []byte {
	return cat(u2(p.count), p.data)
}

// testClass is a class file under construction. newTestClass starts from a
// public class Main extending java/lang/Object at major version 61.
type testClass struct {
	magic      uint32
	major      uint16
	pool       *poolBuilder
	flags      uint16
	thisClass  uint16
	superClass uint16
	interfaces []uint16
	fields     [][]byte
	methods    [][]byte
	attributes [][]byte
}

func newTestClass() *testClass {
	pool := newPoolBuilder()
	return &testClass{
		magic:      Magic,
		major:      61,
		pool:       pool,
		flags:      uint16(AccPublic | AccSuper),
		thisClass:  pool.class("Main"),
		superClass: pool.class("java/lang/Object"),
	}
}

func (t *testClass) addField(flags AccessFlags, name, desc string, attrs ...[]byte) {
	t.fields = append(t.fields, t.member(flags, name, desc, attrs))
}

func (t *testClass) addMethod(flags AccessFlags, name, desc string, attrs ...[]byte) {
	t.methods = append(t.methods, t.member(flags, name, desc, attrs))
}

func (t *testClass) member(flags AccessFlags, name, desc string, attrs [][]byte) []byte {
	b := cat(u2(uint16(flags)), u2(t.pool.utf8(name)), u2(t.pool.utf8(desc)), u2(uint16(len(attrs))))
	return cat(append([][]byte{b}, attrs...)...)
}

// attr encodes a named attribute with its true length.
func (t *testClass) attr(name string, body ...[]byte) []byte {
	payload := cat(body...)
	return cat(u2(t.pool.utf8(name)), u4(uint32(len(payload))), payload)
}

func (t *testClass) code(maxStack, maxLocals uint16, bytecode []byte, table []ExceptionTableEntry, attrs ...[]byte) []byte {
	b := cat(u2(maxStack), u2(maxLocals), u4(uint32(len(bytecode))), bytecode, u2(uint16(len(table))))
	for _, e := range table {
		b = cat(b, u2(e.StartPC), u2(e.EndPC), u2(e.HandlerPC), u2(e.CatchType))
	}
	b = cat(b, u2(uint16(len(attrs))))
	return t.attr("Code", append([][]byte{b}, attrs...)...)
}

func (t *testClass) bytes() []byte {
	b := cat(u4(t.magic), u2(0), u2(t.major), t.pool.bytes())
	b = cat(b, u2(t.flags), u2(t.thisClass), u2(t.superClass), u2(uint16(len(t.interfaces))))
	for _, i := range t.interfaces {
		b = cat(b, u2(i))
	}
	b = cat(b, u2(uint16(len(t.fields))))
	b = cat(append([][]byte{b}, t.fields...)...)
	b = cat(b, u2(uint16(len(t.methods))))
	b = cat(append([][]byte{b}, t.methods...)...)
	b = cat(b, u2(uint16(len(t.attributes))))
	return cat(append([][]byte{b}, t.attributes...)...)
}

func u2(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u4(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }
func u8(v uint64) []byte { return binary.BigEndian.AppendUint64(nil, v) }

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
