package classfile

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMagic                 = errors.New("invalid magic number")
	ErrUnsupportedVersion           = errors.New("unsupported class file version")
	ErrUnexpectedEOF                = errors.New("unexpected end of class data")
	ErrInvalidConstantPoolTag       = errors.New("invalid constant pool tag")
	ErrInvalidConstantPoolReference = errors.New("invalid constant pool reference")
	ErrInvalidUTF8                  = errors.New("invalid utf8 in constant pool")

	// ErrMalformedAttribute reports a known attribute whose body disagrees
	// with its declared attribute_length or its own grammar.
	ErrMalformedAttribute = errors.New("malformed attribute")
	// ErrMalformedClass reports bytes left over after the class attributes.
	ErrMalformedClass          = errors.New("malformed class file")
	ErrAttributeNestingTooDeep = errors.New("attribute nesting too deep")
)

// DecodeError ties a sentinel to the byte offset where decoding stopped.
type DecodeError struct {
	Err error
	Pos int
	Msg string
}

func (e *DecodeError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Pos)
	}
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Pos, e.Msg)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type UnsupportedVersionError struct {
	Major uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported class file version: major %d (supported %d-%d)", e.Major, MinMajorVersion, MaxMajorVersion)
}

func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

type ConstantPoolTagError struct {
	Tag uint8
	Pos int
}

func (e *ConstantPoolTagError) Error() string {
	return fmt.Sprintf("invalid constant pool tag %d at offset %d", e.Tag, e.Pos)
}

func (e *ConstantPoolTagError) Unwrap() error { return ErrInvalidConstantPoolTag }

// ConstantPoolReferenceError reports an index that is out of range or that
// names an entry of the wrong kind. Expected lists the acceptable tags.
type ConstantPoolReferenceError struct {
	Index    uint16
	Expected []ConstantTag
	Found    ConstantTag
}

func (e *ConstantPoolReferenceError) Error() string {
	want := "entry"
	if len(e.Expected) > 0 {
		want = e.Expected[0].String()
		for _, t := range e.Expected[1:] {
			want += " or " + t.String()
		}
	}
	return fmt.Sprintf("invalid constant pool reference #%d: expected %s, found %s", e.Index, want, e.Found)
}

func (e *ConstantPoolReferenceError) Unwrap() error { return ErrInvalidConstantPoolReference }
