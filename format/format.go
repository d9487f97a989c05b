package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/jolt/classfile"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(cf *classfile.ClassFile) error
}

// Names lists the formats accepted by New.
var Names = []string{"line", "json", "cbor"}

func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "line", "":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "cbor":
		return NewCBOREncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %v)", name, Names)
	}
}

// write marshals through m and copies the result to w.
func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
