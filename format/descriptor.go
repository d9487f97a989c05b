package format

import "strings"

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// typeName renders the field type starting at desc[0] in source form and
// reports how many bytes it used. It returns "", 0 for a malformed type.
func typeName(desc string) (string, int) {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	if dims >= len(desc) {
		return "", 0
	}

	var name string
	n := dims + 1
	switch c := desc[dims]; c {
	case 'L':
		end := strings.IndexByte(desc[dims:], ';')
		if end < 0 {
			return "", 0
		}
		name = strings.ReplaceAll(desc[dims+1:dims+end], "/", ".")
		n = dims + end + 1
	default:
		base, ok := baseTypes[c]
		if !ok || (c == 'V' && dims > 0) {
			return "", 0
		}
		name = base
	}
	return name + strings.Repeat("[]", dims), n
}

// fieldType renders a field descriptor, falling back to the raw text.
func fieldType(desc string) string {
	name, n := typeName(desc)
	if n != len(desc) {
		return desc
	}
	return name
}

// methodType splits a method descriptor into parameter and return types.
// ok is false when desc is not a well-formed method descriptor.
func methodType(desc string) (params []string, ret string, ok bool) {
	if !strings.HasPrefix(desc, "(") {
		return nil, "", false
	}
	rest := desc[1:]
	for len(rest) > 0 && rest[0] != ')' {
		name, n := typeName(rest)
		if n == 0 || name == "void" {
			return nil, "", false
		}
		params = append(params, name)
		rest = rest[n:]
	}
	if len(rest) == 0 {
		return nil, "", false
	}
	ret, n := typeName(rest[1:])
	if n == 0 || n != len(rest)-1 {
		return nil, "", false
	}
	return params, ret, true
}
