package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/jolt/classfile"
)

// LineEncoder writes one tab-separated line for the class and one per field
// and method. Empty columns are written as "-".
type LineEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	return write(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	s := Summarize(e.class)

	fmt.Fprintf(&sb, "%s\t%s\t%s\t%d.%d\t%s\n",
		s.Kind,
		s.Name,
		join(append([]string{s.Visibility}, s.Modifiers...)),
		s.Version.Major,
		s.Version.Minor,
		orDash(s.SuperClass),
	)

	for _, f := range s.Fields {
		fmt.Fprintf(&sb, "field\t%s\t%s\t%s\t%s\n",
			f.Name,
			f.Type,
			f.Visibility,
			join(f.Modifiers),
		)
	}

	for _, m := range s.Methods {
		fmt.Fprintf(&sb, "method\t%s\t%s\t%s\t%s\t%s\n",
			m.Name,
			m.ReturnType,
			join(m.Parameters),
			m.Visibility,
			join(m.Modifiers),
		)
	}

	return []byte(sb.String()), nil
}

func join(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
