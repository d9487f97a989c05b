package classfile

import (
	"fmt"
	"io"
	"os"
)

type Option func(*decoder)

// WithMaxAttributeDepth limits how deeply attributes may nest inside Code
// attributes. Class, field and method attributes sit at depth 1.
func WithMaxAttributeDepth(depth int) Option {
	return func(d *decoder) {
		if depth > 0 {
			d.maxDepth = depth
		}
	}
}

type decoder struct {
	cp       ConstantPool
	maxDepth int
}

func newDecoder(opts []Option) *decoder {
	d := &decoder{maxDepth: DefaultMaxAttributeDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func ParseFile(path string, opts ...Option) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	return Parse(data, opts...)
}

func ParseReader(r io.Reader, opts ...Option) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read class data: %w", err)
	}
	return Parse(data, opts...)
}

// Parse decodes one class file. It either returns a complete ClassFile or an
// error; nothing partially decoded escapes. data is not retained.
func Parse(data []byte, opts ...Option) (*ClassFile, error) {
	d := newDecoder(opts)
	c := newCursor(data)

	magic := c.readU4()
	if c.err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", c.err)
	}
	if magic != Magic {
		return nil, &DecodeError{Err: ErrInvalidMagic, Pos: 0, Msg: fmt.Sprintf("0x%X (expected 0xCAFEBABE)", magic)}
	}

	cf := &ClassFile{
		MinorVersion: c.readU2(),
		MajorVersion: c.readU2(),
	}
	if c.err != nil {
		return nil, fmt.Errorf("failed to read version: %w", c.err)
	}
	if cf.MajorVersion < MinMajorVersion || cf.MajorVersion > MaxMajorVersion {
		return nil, &UnsupportedVersionError{Major: cf.MajorVersion}
	}

	constantPoolCount := c.readU2()
	if c.err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", c.err)
	}
	cp, err := readConstantPool(c, constantPoolCount)
	if err != nil {
		return nil, err
	}
	d.cp = cp
	cf.ConstantPool = cp

	cf.AccessFlags = AccessFlags(c.readU2())
	cf.ThisClass = c.readU2()
	cf.SuperClass = c.readU2()
	interfacesCount := c.readU2()
	if c.err != nil {
		return nil, fmt.Errorf("failed to read class info: %w", c.err)
	}
	if _, err := cp.Class(cf.ThisClass); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	if cf.SuperClass != 0 {
		if _, err := cp.Class(cf.SuperClass); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}

	cf.Interfaces = make([]uint16, 0, min(int(interfacesCount), c.remaining()/2))
	for i := uint16(0); i < interfacesCount; i++ {
		idx, err := d.readIndex(c, ConstantClass)
		if err != nil {
			return nil, fmt.Errorf("failed to read interface %d: %w", i, err)
		}
		cf.Interfaces = append(cf.Interfaces, idx)
	}

	fieldsCount := c.readU2()
	if c.err != nil {
		return nil, fmt.Errorf("failed to read fields count: %w", c.err)
	}
	cf.Fields = make([]FieldInfo, 0, min(int(fieldsCount), c.remaining()/8))
	for i := uint16(0); i < fieldsCount; i++ {
		m, err := d.readMember(c)
		if err != nil {
			return nil, fmt.Errorf("failed to read field %d: %w", i, err)
		}
		cf.Fields = append(cf.Fields, FieldInfo(m))
	}

	methodsCount := c.readU2()
	if c.err != nil {
		return nil, fmt.Errorf("failed to read methods count: %w", c.err)
	}
	cf.Methods = make([]MethodInfo, 0, min(int(methodsCount), c.remaining()/8))
	for i := uint16(0); i < methodsCount; i++ {
		m, err := d.readMember(c)
		if err != nil {
			return nil, fmt.Errorf("failed to read method %d: %w", i, err)
		}
		cf.Methods = append(cf.Methods, MethodInfo(m))
	}

	attributesCount := c.readU2()
	if c.err != nil {
		return nil, fmt.Errorf("failed to read attributes count: %w", c.err)
	}
	cf.Attributes, err = d.readAttributes(c, attributesCount, 1)
	if err != nil {
		return nil, fmt.Errorf("class: %w", err)
	}

	if c.remaining() != 0 {
		return nil, &DecodeError{Err: ErrMalformedClass, Pos: c.pos, Msg: fmt.Sprintf("%d trailing bytes", c.remaining())}
	}
	return cf, nil
}

// member is the shared field_info/method_info layout. FieldInfo and
// MethodInfo convert from it directly.
type member struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (d *decoder) readMember(c *cursor) (member, error) {
	m := member{
		AccessFlags:     AccessFlags(c.readU2()),
		NameIndex:       c.readU2(),
		DescriptorIndex: c.readU2(),
	}
	// Each entity's own attributes_count drives its attribute loop.
	attributesCount := c.readU2()
	if c.err != nil {
		return member{}, c.err
	}
	if _, err := d.cp.Utf8(m.NameIndex); err != nil {
		return member{}, fmt.Errorf("name: %w", err)
	}
	if _, err := d.cp.Utf8(m.DescriptorIndex); err != nil {
		return member{}, fmt.Errorf("descriptor: %w", err)
	}

	attrs, err := d.readAttributes(c, attributesCount, 1)
	if err != nil {
		return member{}, err
	}
	m.Attributes = attrs
	return m, nil
}

// readConstantPool returns exactly count slots (at least the sentinel). Long
// and Double take two slots; the second is an Empty entry and no tag is read
// for it.
func readConstantPool(c *cursor, count uint16) (ConstantPool, error) {
	if count == 0 {
		count = 1
	}
	cp := make(ConstantPool, count)
	cp[0] = &ConstantEmptyInfo{}
	for i := 1; i < int(count); i++ {
		entry, err := readConstant(c)
		if err != nil {
			return nil, fmt.Errorf("failed to read constant pool entry %d: %w", i, err)
		}
		cp[i] = entry
		if tag := entry.Tag(); tag == ConstantLong || tag == ConstantDouble {
			i++
			if i >= int(count) {
				return nil, &DecodeError{
					Err: ErrInvalidConstantPoolReference,
					Pos: c.pos,
					Msg: fmt.Sprintf("%s constant in last pool slot %d", tag, i-1),
				}
			}
			cp[i] = &ConstantEmptyInfo{}
		}
	}
	if err := cp.validate(); err != nil {
		return nil, fmt.Errorf("constant pool: %w", err)
	}
	return cp, nil
}

func readConstant(c *cursor) (ConstantPoolEntry, error) {
	pos := c.pos
	tag := ConstantTag(c.readU1())
	if c.err != nil {
		return nil, c.err
	}

	var entry ConstantPoolEntry
	switch tag {
	case ConstantUtf8:
		length := c.readU2()
		raw := c.readBytes(int(length))
		if c.err != nil {
			return nil, c.err
		}
		text, err := decodeModifiedUTF8(raw)
		if err != nil {
			return nil, &DecodeError{Err: ErrInvalidUTF8, Pos: pos, Msg: err.Error()}
		}
		entry = &ConstantUtf8Info{Value: text}
	case ConstantInteger:
		entry = &ConstantIntegerInfo{Bytes: c.readU4()}
	case ConstantFloat:
		entry = &ConstantFloatInfo{Bytes: c.readU4()}
	case ConstantLong:
		entry = &ConstantLongInfo{High: c.readU4(), Low: c.readU4()}
	case ConstantDouble:
		entry = &ConstantDoubleInfo{High: c.readU4(), Low: c.readU4()}
	case ConstantClass:
		entry = &ConstantClassInfo{NameIndex: c.readU2()}
	case ConstantString:
		entry = &ConstantStringInfo{StringIndex: c.readU2()}
	case ConstantFieldref:
		entry = &ConstantFieldrefInfo{ClassIndex: c.readU2(), NameAndTypeIndex: c.readU2()}
	case ConstantMethodref:
		entry = &ConstantMethodrefInfo{ClassIndex: c.readU2(), NameAndTypeIndex: c.readU2()}
	case ConstantInterfaceMethodref:
		entry = &ConstantInterfaceMethodrefInfo{ClassIndex: c.readU2(), NameAndTypeIndex: c.readU2()}
	case ConstantNameAndType:
		entry = &ConstantNameAndTypeInfo{NameIndex: c.readU2(), DescriptorIndex: c.readU2()}
	case ConstantMethodHandle:
		entry = &ConstantMethodHandleInfo{ReferenceKind: MethodHandleKind(c.readU1()), ReferenceIndex: c.readU2()}
	case ConstantMethodType:
		entry = &ConstantMethodTypeInfo{DescriptorIndex: c.readU2()}
	case ConstantInvokeDynamic:
		entry = &ConstantInvokeDynamicInfo{BootstrapMethodAttrIndex: c.readU2(), NameAndTypeIndex: c.readU2()}
	case ConstantModule:
		entry = &ConstantModuleInfo{NameIndex: c.readU2()}
	case ConstantPackage:
		entry = &ConstantPackageInfo{NameIndex: c.readU2()}
	default:
		return nil, &ConstantPoolTagError{Tag: uint8(tag), Pos: pos}
	}
	if c.err != nil {
		return nil, c.err
	}
	return entry, nil
}
