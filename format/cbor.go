package format

import (
	"fmt"
	"io"

	"github.com/dhamidi/jolt/classfile"
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode is canonical so equal classes always encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("format: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type CBOREncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewCBOREncoder(w io.Writer) *CBOREncoder {
	return &CBOREncoder{w: w}
}

func (e *CBOREncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	return write(e.w, e)
}

func (e *CBOREncoder) MarshalText() ([]byte, error) {
	return cborEncMode.Marshal(Summarize(e.class))
}

// DecodeSummaryCBOR reads back one summary written by CBOREncoder.
func DecodeSummaryCBOR(data []byte) (*ClassSummary, error) {
	var s ClassSummary
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("format: unmarshal class summary: %w", err)
	}
	return &s, nil
}
