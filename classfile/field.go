package classfile

type FieldInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (f *FieldInfo) Name(cp ConstantPool) string {
	return cp.GetUtf8(f.NameIndex)
}

func (f *FieldInfo) Descriptor(cp ConstantPool) string {
	return cp.GetUtf8(f.DescriptorIndex)
}

func (f *FieldInfo) GetAttribute(name string) *AttributeInfo {
	return findAttribute(f.Attributes, name)
}

// ConstantValue returns the initializer entry of a static final field, or nil.
func (f *FieldInfo) ConstantValue(cp ConstantPool) ConstantPoolEntry {
	attr := f.GetAttribute("ConstantValue")
	if attr == nil {
		return nil
	}
	entry, err := cp.Entry(attr.AsConstantValue().ConstantValueIndex)
	if err != nil {
		return nil
	}
	return entry
}
