package classfile

import (
	"fmt"
	"math"
)

// ConstantPoolEntry is one of the *ConstantXxxInfo types below. The set is
// closed: isConstant keeps other packages from adding kinds.
type ConstantPoolEntry interface {
	Tag() ConstantTag
	isConstant()
}

type constant struct{}

func (constant) isConstant() {}

// ConstantEmptyInfo fills slot 0 and the slot following every Long or Double.
type ConstantEmptyInfo struct{ constant }

func (c *ConstantEmptyInfo) Tag() ConstantTag { return ConstantEmpty }

type ConstantUtf8Info struct {
	constant
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	constant
	Bytes uint32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }
func (c *ConstantIntegerInfo) Value() int32     { return int32(c.Bytes) }

type ConstantFloatInfo struct {
	constant
	Bytes uint32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }
func (c *ConstantFloatInfo) Value() float32   { return math.Float32frombits(c.Bytes) }

type ConstantLongInfo struct {
	constant
	High uint32
	Low  uint32
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }
func (c *ConstantLongInfo) Value() int64     { return int64(uint64(c.High)<<32 | uint64(c.Low)) }

type ConstantDoubleInfo struct {
	constant
	High uint32
	Low  uint32
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }
func (c *ConstantDoubleInfo) Value() float64 {
	return math.Float64frombits(uint64(c.High)<<32 | uint64(c.Low))
}

type ConstantClassInfo struct {
	constant
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	constant
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

type ConstantFieldrefInfo struct {
	constant
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldrefInfo) Tag() ConstantTag { return ConstantFieldref }

type ConstantMethodrefInfo struct {
	constant
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodrefInfo) Tag() ConstantTag { return ConstantMethodref }

type ConstantInterfaceMethodrefInfo struct {
	constant
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodrefInfo) Tag() ConstantTag { return ConstantInterfaceMethodref }

type ConstantNameAndTypeInfo struct {
	constant
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type ConstantMethodHandleInfo struct {
	constant
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() ConstantTag { return ConstantMethodHandle }

type ConstantMethodTypeInfo struct {
	constant
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() ConstantTag { return ConstantMethodType }

type ConstantInvokeDynamicInfo struct {
	constant
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantInvokeDynamicInfo) Tag() ConstantTag { return ConstantInvokeDynamic }

type ConstantModuleInfo struct {
	constant
	NameIndex uint16
}

func (c *ConstantModuleInfo) Tag() ConstantTag { return ConstantModule }

type ConstantPackageInfo struct {
	constant
	NameIndex uint16
}

func (c *ConstantPackageInfo) Tag() ConstantTag { return ConstantPackage }

// ConstantPool is indexed directly by constant pool index; cp[0] is always
// the Empty sentinel.
type ConstantPool []ConstantPoolEntry

// Entry returns the entry at index, requiring its tag to be one of want when
// want is non-empty.
func (cp ConstantPool) Entry(index uint16, want ...ConstantTag) (ConstantPoolEntry, error) {
	if index == 0 || int(index) >= len(cp) {
		return nil, &ConstantPoolReferenceError{Index: index, Expected: want, Found: ConstantEmpty}
	}
	entry := cp[index]
	if len(want) == 0 {
		if entry.Tag() == ConstantEmpty {
			return nil, &ConstantPoolReferenceError{Index: index, Found: ConstantEmpty}
		}
		return entry, nil
	}
	for _, t := range want {
		if entry.Tag() == t {
			return entry, nil
		}
	}
	return nil, &ConstantPoolReferenceError{Index: index, Expected: want, Found: entry.Tag()}
}

func (cp ConstantPool) Utf8(index uint16) (string, error) {
	entry, err := cp.Entry(index, ConstantUtf8)
	if err != nil {
		return "", err
	}
	return entry.(*ConstantUtf8Info).Value, nil
}

func (cp ConstantPool) Class(index uint16) (*ConstantClassInfo, error) {
	entry, err := cp.Entry(index, ConstantClass)
	if err != nil {
		return nil, err
	}
	return entry.(*ConstantClassInfo), nil
}

func (cp ConstantPool) ClassName(index uint16) (string, error) {
	class, err := cp.Class(index)
	if err != nil {
		return "", err
	}
	return cp.Utf8(class.NameIndex)
}

func (cp ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	entry, err := cp.Entry(index, ConstantNameAndType)
	if err != nil {
		return "", "", err
	}
	nat := entry.(*ConstantNameAndTypeInfo)
	if name, err = cp.Utf8(nat.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = cp.Utf8(nat.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// GetUtf8 is the lenient form of Utf8 for display code: bad indices give "".
func (cp ConstantPool) GetUtf8(index uint16) string {
	s, _ := cp.Utf8(index)
	return s
}

func (cp ConstantPool) GetClassName(index uint16) string {
	s, _ := cp.ClassName(index)
	return s
}

// validate checks every cross reference between pool entries.
func (cp ConstantPool) validate() error {
	for i, entry := range cp {
		var err error
		switch e := entry.(type) {
		case *ConstantClassInfo:
			_, err = cp.Utf8(e.NameIndex)
		case *ConstantStringInfo:
			_, err = cp.Utf8(e.StringIndex)
		case *ConstantMethodTypeInfo:
			_, err = cp.Utf8(e.DescriptorIndex)
		case *ConstantModuleInfo:
			_, err = cp.Utf8(e.NameIndex)
		case *ConstantPackageInfo:
			_, err = cp.Utf8(e.NameIndex)
		case *ConstantFieldrefInfo:
			err = cp.validateMemberRef(e.ClassIndex, e.NameAndTypeIndex)
		case *ConstantMethodrefInfo:
			err = cp.validateMemberRef(e.ClassIndex, e.NameAndTypeIndex)
		case *ConstantInterfaceMethodrefInfo:
			err = cp.validateMemberRef(e.ClassIndex, e.NameAndTypeIndex)
		case *ConstantNameAndTypeInfo:
			_, _, err = cp.NameAndType(uint16(i))
		case *ConstantMethodHandleInfo:
			if e.ReferenceKind < RefGetField || e.ReferenceKind > RefInvokeInterface {
				err = fmt.Errorf("%w: method handle #%d has reference kind %d", ErrInvalidConstantPoolReference, i, e.ReferenceKind)
				break
			}
			_, err = cp.Entry(e.ReferenceIndex, ConstantFieldref, ConstantMethodref, ConstantInterfaceMethodref)
		case *ConstantInvokeDynamicInfo:
			_, err = cp.Entry(e.NameAndTypeIndex, ConstantNameAndType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (cp ConstantPool) validateMemberRef(classIndex, natIndex uint16) error {
	if _, err := cp.Class(classIndex); err != nil {
		return err
	}
	_, err := cp.Entry(natIndex, ConstantNameAndType)
	return err
}
