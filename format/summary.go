package format

import (
	"github.com/dhamidi/jolt/classfile"
)

// ClassSummary is the exported view of a decoded class shared by the JSON
// and CBOR encoders.
type ClassSummary struct {
	Name          string          `json:"name" cbor:"1,keyasint"`
	SuperClass    string          `json:"superClass,omitempty" cbor:"2,keyasint,omitempty"`
	Interfaces    []string        `json:"interfaces,omitempty" cbor:"3,keyasint,omitempty"`
	Kind          string          `json:"kind" cbor:"4,keyasint"`
	Visibility    string          `json:"visibility" cbor:"5,keyasint"`
	Modifiers     []string        `json:"modifiers,omitempty" cbor:"6,keyasint,omitempty"`
	Version       Version         `json:"version" cbor:"7,keyasint"`
	SourceFile    string          `json:"sourceFile,omitempty" cbor:"8,keyasint,omitempty"`
	ConstantCount int             `json:"constantCount" cbor:"9,keyasint"`
	Fields        []FieldSummary  `json:"fields,omitempty" cbor:"10,keyasint,omitempty"`
	Methods       []MethodSummary `json:"methods,omitempty" cbor:"11,keyasint,omitempty"`
	Attributes    []string        `json:"attributes,omitempty" cbor:"12,keyasint,omitempty"`
}

type Version struct {
	Major uint16 `json:"major" cbor:"1,keyasint"`
	Minor uint16 `json:"minor" cbor:"2,keyasint"`
}

type FieldSummary struct {
	Name       string   `json:"name" cbor:"1,keyasint"`
	Descriptor string   `json:"descriptor" cbor:"2,keyasint"`
	Type       string   `json:"type" cbor:"3,keyasint"`
	Visibility string   `json:"visibility" cbor:"4,keyasint"`
	Modifiers  []string `json:"modifiers,omitempty" cbor:"5,keyasint,omitempty"`
}

type MethodSummary struct {
	Name       string       `json:"name" cbor:"1,keyasint"`
	Descriptor string       `json:"descriptor" cbor:"2,keyasint"`
	ReturnType string       `json:"returnType" cbor:"3,keyasint"`
	Parameters []string     `json:"parameters,omitempty" cbor:"4,keyasint,omitempty"`
	Visibility string       `json:"visibility" cbor:"5,keyasint"`
	Modifiers  []string     `json:"modifiers,omitempty" cbor:"6,keyasint,omitempty"`
	Code       *CodeSummary `json:"code,omitempty" cbor:"7,keyasint,omitempty"`
}

type CodeSummary struct {
	MaxStack          uint16 `json:"maxStack" cbor:"1,keyasint"`
	MaxLocals         uint16 `json:"maxLocals" cbor:"2,keyasint"`
	Length            int    `json:"length" cbor:"3,keyasint"`
	ExceptionHandlers int    `json:"exceptionHandlers,omitempty" cbor:"4,keyasint,omitempty"`
}

func Summarize(cf *classfile.ClassFile) *ClassSummary {
	cp := cf.ConstantPool
	s := &ClassSummary{
		Name:          cf.ClassName(),
		SuperClass:    cf.SuperClassName(),
		Kind:          cf.Kind(),
		Visibility:    cf.AccessFlags.Visibility(),
		Modifiers:     classModifiers(cf.AccessFlags),
		Version:       Version{Major: cf.MajorVersion, Minor: cf.MinorVersion},
		SourceFile:    cf.SourceFile(),
		ConstantCount: len(cp),
	}
	if len(cf.Interfaces) > 0 {
		s.Interfaces = cf.InterfaceNames()
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		desc := f.Descriptor(cp)
		s.Fields = append(s.Fields, FieldSummary{
			Name:       f.Name(cp),
			Descriptor: desc,
			Type:       fieldType(desc),
			Visibility: f.AccessFlags.Visibility(),
			Modifiers:  fieldModifiers(f.AccessFlags),
		})
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		desc := m.Descriptor(cp)
		ms := MethodSummary{
			Name:       m.Name(cp),
			Descriptor: desc,
			ReturnType: desc,
			Visibility: m.AccessFlags.Visibility(),
			Modifiers:  methodModifiers(m.AccessFlags),
		}
		if params, ret, ok := methodType(desc); ok {
			ms.Parameters, ms.ReturnType = params, ret
		}
		if code := m.Code(); code != nil {
			ms.Code = &CodeSummary{
				MaxStack:          code.MaxStack,
				MaxLocals:         code.MaxLocals,
				Length:            len(code.Code),
				ExceptionHandlers: len(code.ExceptionTable),
			}
		}
		s.Methods = append(s.Methods, ms)
	}

	for i := range cf.Attributes {
		s.Attributes = append(s.Attributes, cf.Attributes[i].Name())
	}
	return s
}

func classModifiers(f classfile.AccessFlags) []string {
	var mods []string
	if f.IsFinal() {
		mods = append(mods, "final")
	}
	if f.IsAbstract() && !f.IsInterface() {
		mods = append(mods, "abstract")
	}
	if f.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	return mods
}

func fieldModifiers(f classfile.AccessFlags) []string {
	var mods []string
	if f.IsStatic() {
		mods = append(mods, "static")
	}
	if f.IsFinal() {
		mods = append(mods, "final")
	}
	if f.IsVolatile() {
		mods = append(mods, "volatile")
	}
	if f.IsTransient() {
		mods = append(mods, "transient")
	}
	if f.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	if f.IsEnum() {
		mods = append(mods, "enum")
	}
	return mods
}

// methodModifiers reads the method meaning of the flag bits shared with
// fields: 0x0040 is bridge and 0x0080 is varargs.
func methodModifiers(f classfile.AccessFlags) []string {
	var mods []string
	if f.IsStatic() {
		mods = append(mods, "static")
	}
	if f.IsFinal() {
		mods = append(mods, "final")
	}
	if f.IsAbstract() {
		mods = append(mods, "abstract")
	}
	if f.IsSynchronized() {
		mods = append(mods, "synchronized")
	}
	if f.IsNative() {
		mods = append(mods, "native")
	}
	if f&classfile.AccBridge != 0 {
		mods = append(mods, "bridge")
	}
	if f&classfile.AccVarargs != 0 {
		mods = append(mods, "varargs")
	}
	if f.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	return mods
}
