package classfile

// ClassFile is a fully decoded class. It is never modified after Parse
// returns it.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo
}

func (cf *ClassFile) ClassName() string {
	return cf.ConstantPool.GetClassName(cf.ThisClass)
}

// SuperClassName is empty for java/lang/Object and module-info.
func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	return cf.ConstantPool.GetClassName(cf.SuperClass)
}

func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		names[i] = cf.ConstantPool.GetClassName(idx)
	}
	return names
}

func (cf *ClassFile) IsInterface() bool {
	return cf.AccessFlags.IsInterface() && !cf.AccessFlags.IsAnnotation()
}

// Kind is one of class, interface, annotation, enum or module.
func (cf *ClassFile) Kind() string {
	switch {
	case cf.AccessFlags.IsModule():
		return "module"
	case cf.AccessFlags.IsAnnotation():
		return "annotation"
	case cf.AccessFlags.IsInterface():
		return "interface"
	case cf.AccessFlags.IsEnum():
		return "enum"
	default:
		return "class"
	}
}

func (cf *ClassFile) GetField(name string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name(cf.ConstantPool) == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

// GetMethod matches on name, and on descriptor unless it is empty.
func (cf *ClassFile) GetMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name(cf.ConstantPool) != name {
			continue
		}
		if descriptor == "" || cf.Methods[i].Descriptor(cf.ConstantPool) == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

func (cf *ClassFile) GetAttribute(name string) *AttributeInfo {
	return findAttribute(cf.Attributes, name)
}

func (cf *ClassFile) SourceFile() string {
	attr := cf.GetAttribute("SourceFile")
	if attr == nil {
		return ""
	}
	return cf.ConstantPool.GetUtf8(attr.AsSourceFile().SourceFileIndex)
}
