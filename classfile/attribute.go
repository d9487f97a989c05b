package classfile

import "fmt"

// AttributeInfo is one decoded attribute. Length is the declared
// attribute_length; Parsed is never nil for a successfully decoded class.
type AttributeInfo struct {
	NameIndex uint16
	Length    uint32
	Parsed    Attribute
}

// Attribute is the closed set of attribute bodies this package understands,
// plus SkippedAttribute for everything else.
type Attribute interface {
	AttributeName() string
	isAttribute()
}

type attribute struct{}

func (attribute) isAttribute() {}

// SkippedAttribute marks an attribute whose name is not understood. Its
// payload was stepped over using the declared length and is not kept.
type SkippedAttribute struct {
	attribute
	Name string
}

func (a *SkippedAttribute) AttributeName() string { return a.Name }

type ConstantValueAttribute struct {
	attribute
	ConstantValueIndex uint16
}

func (a *ConstantValueAttribute) AttributeName() string { return "ConstantValue" }

type CodeAttribute struct {
	attribute
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

func (a *CodeAttribute) AttributeName() string { return "Code" }

// ExceptionTableEntry offsets index into Code. CatchType 0 catches everything.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type StackMapTableAttribute struct {
	attribute
	Entries []StackMapFrame
}

func (a *StackMapTableAttribute) AttributeName() string { return "StackMapTable" }

// StackMapFrame holds one decoded frame. For the compact frame types the
// offset delta is derived from FrameType.
type StackMapFrame struct {
	FrameType   uint8
	OffsetDelta uint16
	Locals      []VerificationTypeInfo
	Stack       []VerificationTypeInfo
}

func (f StackMapFrame) Kind() string {
	switch t := f.FrameType; {
	case t <= 63:
		return "same"
	case t <= 127:
		return "same_locals_1_stack_item"
	case t == 247:
		return "same_locals_1_stack_item_extended"
	case t >= 248 && t <= 250:
		return "chop"
	case t == 251:
		return "same_frame_extended"
	case t >= 252 && t <= 254:
		return "append"
	case t == 255:
		return "full"
	default:
		return "reserved"
	}
}

type VerificationTag uint8

const (
	VerifyTop               VerificationTag = 0
	VerifyInteger           VerificationTag = 1
	VerifyFloat             VerificationTag = 2
	VerifyDouble            VerificationTag = 3
	VerifyLong              VerificationTag = 4
	VerifyNull              VerificationTag = 5
	VerifyUninitializedThis VerificationTag = 6
	VerifyObject            VerificationTag = 7
	VerifyUninitialized     VerificationTag = 8
)

// VerificationTypeInfo.Value is a Class index for VerifyObject and a code
// offset for VerifyUninitialized; it is zero otherwise.
type VerificationTypeInfo struct {
	Tag   VerificationTag
	Value uint16
}

type BootstrapMethodsAttribute struct {
	attribute
	BootstrapMethods []BootstrapMethod
}

func (a *BootstrapMethodsAttribute) AttributeName() string { return "BootstrapMethods" }

type BootstrapMethod struct {
	BootstrapMethodRef uint16
	BootstrapArguments []uint16
}

type NestHostAttribute struct {
	attribute
	HostClassIndex uint16
}

func (a *NestHostAttribute) AttributeName() string { return "NestHost" }

type NestMembersAttribute struct {
	attribute
	Classes []uint16
}

func (a *NestMembersAttribute) AttributeName() string { return "NestMembers" }

type PermittedSubclassesAttribute struct {
	attribute
	Classes []uint16
}

func (a *PermittedSubclassesAttribute) AttributeName() string { return "PermittedSubclasses" }

type SourceFileAttribute struct {
	attribute
	SourceFileIndex uint16
}

func (a *SourceFileAttribute) AttributeName() string { return "SourceFile" }

type SignatureAttribute struct {
	attribute
	SignatureIndex uint16
}

func (a *SignatureAttribute) AttributeName() string { return "Signature" }

type ExceptionsAttribute struct {
	attribute
	ExceptionIndexTable []uint16
}

func (a *ExceptionsAttribute) AttributeName() string { return "Exceptions" }

type LineNumberTableAttribute struct {
	attribute
	LineNumberTable []LineNumberEntry
}

func (a *LineNumberTableAttribute) AttributeName() string { return "LineNumberTable" }

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

func (a *AttributeInfo) Name() string {
	if a.Parsed == nil {
		return ""
	}
	return a.Parsed.AttributeName()
}

func (a *AttributeInfo) IsSkipped() bool {
	_, ok := a.Parsed.(*SkippedAttribute)
	return ok
}

func (a *AttributeInfo) AsCode() *CodeAttribute {
	code, _ := a.Parsed.(*CodeAttribute)
	return code
}

func (a *AttributeInfo) AsConstantValue() *ConstantValueAttribute {
	cv, _ := a.Parsed.(*ConstantValueAttribute)
	return cv
}

func (a *AttributeInfo) AsStackMapTable() *StackMapTableAttribute {
	smt, _ := a.Parsed.(*StackMapTableAttribute)
	return smt
}

func (a *AttributeInfo) AsBootstrapMethods() *BootstrapMethodsAttribute {
	bm, _ := a.Parsed.(*BootstrapMethodsAttribute)
	return bm
}

func (a *AttributeInfo) AsNestHost() *NestHostAttribute {
	nh, _ := a.Parsed.(*NestHostAttribute)
	return nh
}

func (a *AttributeInfo) AsNestMembers() *NestMembersAttribute {
	nm, _ := a.Parsed.(*NestMembersAttribute)
	return nm
}

func (a *AttributeInfo) AsPermittedSubclasses() *PermittedSubclassesAttribute {
	ps, _ := a.Parsed.(*PermittedSubclassesAttribute)
	return ps
}

func (a *AttributeInfo) AsSourceFile() *SourceFileAttribute {
	sf, _ := a.Parsed.(*SourceFileAttribute)
	return sf
}

func (a *AttributeInfo) AsSignature() *SignatureAttribute {
	sig, _ := a.Parsed.(*SignatureAttribute)
	return sig
}

func (a *AttributeInfo) AsExceptions() *ExceptionsAttribute {
	ex, _ := a.Parsed.(*ExceptionsAttribute)
	return ex
}

func (a *AttributeInfo) AsLineNumberTable() *LineNumberTableAttribute {
	lnt, _ := a.Parsed.(*LineNumberTableAttribute)
	return lnt
}

// findAttribute is shared by ClassFile, FieldInfo, MethodInfo and
// CodeAttribute lookups.
func findAttribute(attrs []AttributeInfo, name string) *AttributeInfo {
	for i := range attrs {
		if attrs[i].Name() == name {
			return &attrs[i]
		}
	}
	return nil
}

func (a *CodeAttribute) GetAttribute(name string) *AttributeInfo {
	return findAttribute(a.Attributes, name)
}

// readAttributes decodes count attributes. depth is 1 for class, field and
// method attributes and grows by one inside each Code attribute.
func (d *decoder) readAttributes(c *cursor, count uint16, depth int) ([]AttributeInfo, error) {
	if count > 0 && depth > d.maxDepth {
		return nil, &DecodeError{
			Err: ErrAttributeNestingTooDeep,
			Pos: c.pos,
			Msg: fmt.Sprintf("depth %d exceeds limit %d", depth, d.maxDepth),
		}
	}
	attrs := make([]AttributeInfo, 0, min(int(count), c.remaining()/6))
	for i := uint16(0); i < count; i++ {
		attr, err := d.readAttribute(c, depth)
		if err != nil {
			return nil, fmt.Errorf("failed to read attribute %d: %w", i, err)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func (d *decoder) readAttribute(c *cursor, depth int) (AttributeInfo, error) {
	start := c.pos
	nameIndex := c.readU2()
	length := c.readU4()
	if c.err != nil {
		return AttributeInfo{}, c.err
	}

	name, err := d.cp.Utf8(nameIndex)
	if err != nil {
		return AttributeInfo{}, fmt.Errorf("attribute name at offset %d: %w", start, err)
	}

	body := c.sub(int(length))
	if c.err != nil {
		return AttributeInfo{}, fmt.Errorf("%s attribute: %w", name, c.err)
	}

	parsed, err := d.parseAttribute(name, body, depth)
	if err != nil {
		return AttributeInfo{}, fmt.Errorf("%s attribute: %w", name, err)
	}
	if _, skipped := parsed.(*SkippedAttribute); !skipped && body.remaining() != 0 {
		return AttributeInfo{}, &DecodeError{
			Err: ErrMalformedAttribute,
			Pos: body.pos,
			Msg: fmt.Sprintf("%s has %d trailing bytes", name, body.remaining()),
		}
	}

	return AttributeInfo{NameIndex: nameIndex, Length: length, Parsed: parsed}, nil
}

func (d *decoder) parseAttribute(name string, c *cursor, depth int) (Attribute, error) {
	var (
		attr Attribute
		err  error
	)
	switch name {
	case "Code":
		attr, err = d.parseCode(c, depth)
	case "ConstantValue":
		attr, err = d.parseConstantValue(c)
	case "StackMapTable":
		attr, err = d.parseStackMapTable(c)
	case "BootstrapMethods":
		attr, err = d.parseBootstrapMethods(c)
	case "NestHost":
		idx, e := d.readIndex(c, ConstantClass)
		attr, err = &NestHostAttribute{HostClassIndex: idx}, e
	case "NestMembers":
		classes, e := d.readIndexTable(c, ConstantClass)
		attr, err = &NestMembersAttribute{Classes: classes}, e
	case "PermittedSubclasses":
		classes, e := d.readIndexTable(c, ConstantClass)
		attr, err = &PermittedSubclassesAttribute{Classes: classes}, e
	case "SourceFile":
		idx, e := d.readIndex(c, ConstantUtf8)
		attr, err = &SourceFileAttribute{SourceFileIndex: idx}, e
	case "Signature":
		idx, e := d.readIndex(c, ConstantUtf8)
		attr, err = &SignatureAttribute{SignatureIndex: idx}, e
	case "Exceptions":
		classes, e := d.readIndexTable(c, ConstantClass)
		attr, err = &ExceptionsAttribute{ExceptionIndexTable: classes}, e
	case "LineNumberTable":
		attr, err = d.parseLineNumberTable(c)
	default:
		return &SkippedAttribute{Name: name}, nil
	}
	if err != nil {
		return nil, err
	}
	return attr, nil
}

func (d *decoder) parseCode(c *cursor, depth int) (*CodeAttribute, error) {
	code := &CodeAttribute{
		MaxStack:  c.readU2(),
		MaxLocals: c.readU2(),
	}
	codeLength := c.readU4()
	code.Code = c.readBytes(int(codeLength))

	exceptionTableLength := c.readU2()
	if c.err != nil {
		return nil, c.err
	}
	code.ExceptionTable = make([]ExceptionTableEntry, 0, min(int(exceptionTableLength), c.remaining()/8))
	for i := uint16(0); i < exceptionTableLength; i++ {
		entry := ExceptionTableEntry{
			StartPC:   c.readU2(),
			EndPC:     c.readU2(),
			HandlerPC: c.readU2(),
			CatchType: c.readU2(),
		}
		if c.err != nil {
			return nil, c.err
		}
		if entry.CatchType != 0 {
			if _, err := d.cp.Class(entry.CatchType); err != nil {
				return nil, fmt.Errorf("exception table entry %d: %w", i, err)
			}
		}
		code.ExceptionTable = append(code.ExceptionTable, entry)
	}

	attributesCount := c.readU2()
	if c.err != nil {
		return nil, c.err
	}
	attrs, err := d.readAttributes(c, attributesCount, depth+1)
	if err != nil {
		return nil, err
	}
	code.Attributes = attrs
	return code, nil
}

func (d *decoder) parseConstantValue(c *cursor) (*ConstantValueAttribute, error) {
	idx, err := d.readIndex(c, ConstantInteger, ConstantFloat, ConstantLong, ConstantDouble, ConstantString)
	if err != nil {
		return nil, err
	}
	return &ConstantValueAttribute{ConstantValueIndex: idx}, nil
}

func (d *decoder) parseBootstrapMethods(c *cursor) (*BootstrapMethodsAttribute, error) {
	count := c.readU2()
	if c.err != nil {
		return nil, c.err
	}
	bm := &BootstrapMethodsAttribute{
		BootstrapMethods: make([]BootstrapMethod, 0, min(int(count), c.remaining()/4)),
	}
	for i := uint16(0); i < count; i++ {
		ref, err := d.readIndex(c, ConstantMethodHandle)
		if err != nil {
			return nil, fmt.Errorf("bootstrap method %d: %w", i, err)
		}
		numArgs := c.readU2()
		if c.err != nil {
			return nil, c.err
		}
		args := make([]uint16, 0, min(int(numArgs), c.remaining()/2))
		for j := uint16(0); j < numArgs; j++ {
			arg, err := d.readIndex(c)
			if err != nil {
				return nil, fmt.Errorf("bootstrap method %d argument %d: %w", i, j, err)
			}
			args = append(args, arg)
		}
		bm.BootstrapMethods = append(bm.BootstrapMethods, BootstrapMethod{
			BootstrapMethodRef: ref,
			BootstrapArguments: args,
		})
	}
	return bm, nil
}

func (d *decoder) parseLineNumberTable(c *cursor) (*LineNumberTableAttribute, error) {
	count := c.readU2()
	if c.err != nil {
		return nil, c.err
	}
	lnt := &LineNumberTableAttribute{
		LineNumberTable: make([]LineNumberEntry, 0, min(int(count), c.remaining()/4)),
	}
	for i := uint16(0); i < count; i++ {
		entry := LineNumberEntry{StartPC: c.readU2(), LineNumber: c.readU2()}
		if c.err != nil {
			return nil, c.err
		}
		lnt.LineNumberTable = append(lnt.LineNumberTable, entry)
	}
	return lnt, nil
}

func (d *decoder) parseStackMapTable(c *cursor) (*StackMapTableAttribute, error) {
	count := c.readU2()
	if c.err != nil {
		return nil, c.err
	}
	smt := &StackMapTableAttribute{
		Entries: make([]StackMapFrame, 0, min(int(count), c.remaining())),
	}
	for i := uint16(0); i < count; i++ {
		frame, err := d.readStackMapFrame(c)
		if err != nil {
			return nil, fmt.Errorf("stack map frame %d: %w", i, err)
		}
		smt.Entries = append(smt.Entries, frame)
	}
	return smt, nil
}

func (d *decoder) readStackMapFrame(c *cursor) (StackMapFrame, error) {
	start := c.pos
	frameType := c.readU1()
	if c.err != nil {
		return StackMapFrame{}, c.err
	}
	frame := StackMapFrame{FrameType: frameType}

	var err error
	switch {
	case frameType <= 63:
		frame.OffsetDelta = uint16(frameType)
	case frameType <= 127:
		frame.OffsetDelta = uint16(frameType - 64)
		frame.Stack, err = d.readVerificationTypes(c, 1)
	case frameType < 247:
		return StackMapFrame{}, &DecodeError{
			Err: ErrMalformedAttribute,
			Pos: start,
			Msg: fmt.Sprintf("reserved stack map frame type %d", frameType),
		}
	case frameType == 247:
		frame.OffsetDelta = c.readU2()
		frame.Stack, err = d.readVerificationTypes(c, 1)
	case frameType <= 251:
		// chop_frame and same_frame_extended carry only the delta
		frame.OffsetDelta = c.readU2()
	case frameType <= 254:
		frame.OffsetDelta = c.readU2()
		frame.Locals, err = d.readVerificationTypes(c, int(frameType)-251)
	default:
		frame.OffsetDelta = c.readU2()
		frame.Locals, err = d.readVerificationTypes(c, int(c.readU2()))
		if err == nil {
			frame.Stack, err = d.readVerificationTypes(c, int(c.readU2()))
		}
	}
	if err != nil {
		return StackMapFrame{}, err
	}
	if c.err != nil {
		return StackMapFrame{}, c.err
	}
	return frame, nil
}

func (d *decoder) readVerificationTypes(c *cursor, n int) ([]VerificationTypeInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	types := make([]VerificationTypeInfo, 0, min(n, c.remaining()))
	for i := 0; i < n; i++ {
		start := c.pos
		info := VerificationTypeInfo{Tag: VerificationTag(c.readU1())}
		switch info.Tag {
		case VerifyTop, VerifyInteger, VerifyFloat, VerifyDouble, VerifyLong, VerifyNull, VerifyUninitializedThis:
		case VerifyObject:
			idx, err := d.readIndex(c, ConstantClass)
			if err != nil {
				return nil, err
			}
			info.Value = idx
		case VerifyUninitialized:
			info.Value = c.readU2()
		default:
			return nil, &DecodeError{
				Err: ErrMalformedAttribute,
				Pos: start,
				Msg: fmt.Sprintf("unknown verification type tag %d", info.Tag),
			}
		}
		if c.err != nil {
			return nil, c.err
		}
		types = append(types, info)
	}
	return types, nil
}

// readIndex reads a u2 constant pool index and checks it against want. With
// no tags any non-empty slot is accepted.
func (d *decoder) readIndex(c *cursor, want ...ConstantTag) (uint16, error) {
	idx := c.readU2()
	if c.err != nil {
		return 0, c.err
	}
	if _, err := d.cp.Entry(idx, want...); err != nil {
		return 0, err
	}
	return idx, nil
}

func (d *decoder) readIndexTable(c *cursor, want ...ConstantTag) ([]uint16, error) {
	count := c.readU2()
	if c.err != nil {
		return nil, c.err
	}
	table := make([]uint16, 0, min(int(count), c.remaining()/2))
	for i := uint16(0); i < count; i++ {
		idx, err := d.readIndex(c, want...)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		table = append(table, idx)
	}
	return table, nil
}
