package classfile

import (
	"errors"
	"testing"
)

func TestAttributeNestingGuard(t *testing.T) {
	build := func() []byte {
		tc := newTestClass()
		inner := tc.code(1, 1, []byte{0xB1}, nil, tc.attr("Foo", []byte{1}))
		tc.addMethod(AccPublic, "run", "()V", tc.code(1, 1, []byte{0xB1}, nil, inner))
		return tc.bytes()
	}

	tests := []struct {
		name     string
		maxDepth int
		wantErr  error
	}{
		{"default limit", 0, nil},
		{"exact limit", 3, nil},
		{"too deep for nested code", 2, ErrAttributeNestingTooDeep},
		{"too deep for any code body", 1, ErrAttributeNestingTooDeep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.maxDepth > 0 {
				opts = append(opts, WithMaxAttributeDepth(tt.maxDepth))
			}
			_, err := Parse(build(), opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("empty code body is not nested", func(t *testing.T) {
		tc := newTestClass()
		tc.addMethod(AccPublic, "run", "()V", tc.code(1, 1, []byte{0xB1}, nil))
		if _, err := Parse(tc.bytes(), WithMaxAttributeDepth(1)); err != nil {
			t.Errorf("Parse() error = %v", err)
		}
	})
}

func TestAttributeLengthMismatch(t *testing.T) {
	tests := []struct {
		name    string
		attr    func(tc *testClass) []byte
		wantErr error
	}{
		{"constant value too long", func(tc *testClass) []byte {
			return tc.attr("ConstantValue", u2(tc.pool.integer(1)), []byte{0})
		}, ErrMalformedAttribute},
		{"constant value too short", func(tc *testClass) []byte {
			return tc.attr("ConstantValue", []byte{0})
		}, ErrUnexpectedEOF},
		{"code with trailing bytes", func(tc *testClass) []byte {
			code := tc.code(1, 1, []byte{0xB1}, nil)
			// bump attribute_length by one and append a stray byte
			code[5]++
			return append(code, 0xFF)
		}, ErrMalformedAttribute},
		{"unknown attribute of any length", func(tc *testClass) []byte {
			return tc.attr("Deprecated", []byte{9, 9, 9, 9, 9})
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestClass()
			tc.addField(AccStatic|AccFinal, "X", "I", tt.attr(tc))
			_, err := Parse(tc.bytes())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStackMapTable(t *testing.T) {
	tc := newTestClass()
	str := tc.pool.class("java/lang/String")
	frames := cat(
		u2(7),
		[]byte{10},
		[]byte{64 + 5, byte(VerifyInteger)},
		[]byte{247}, u2(300), []byte{byte(VerifyObject)}, u2(str),
		[]byte{249}, u2(2),
		[]byte{251}, u2(400),
		[]byte{253}, u2(1), []byte{byte(VerifyLong), byte(VerifyUninitialized)}, u2(7),
		[]byte{255}, u2(9), u2(1), []byte{byte(VerifyUninitializedThis)}, u2(1), []byte{byte(VerifyNull)},
	)
	tc.addMethod(AccPublic, "run", "()V",
		tc.code(2, 2, []byte{0xB1}, nil, tc.attr("StackMapTable", frames)))

	cf, err := Parse(tc.bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	smt := cf.GetMethod("run", "()V").Code().GetAttribute("StackMapTable").AsStackMapTable()
	if smt == nil {
		t.Fatal("expected StackMapTable")
	}

	want := []struct {
		kind   string
		delta  uint16
		locals []VerificationTypeInfo
		stack  []VerificationTypeInfo
	}{
		{"same", 10, nil, nil},
		{"same_locals_1_stack_item", 5, nil, []VerificationTypeInfo{{Tag: VerifyInteger}}},
		{"same_locals_1_stack_item_extended", 300, nil, []VerificationTypeInfo{{Tag: VerifyObject, Value: str}}},
		{"chop", 2, nil, nil},
		{"same_frame_extended", 400, nil, nil},
		{"append", 1, []VerificationTypeInfo{{Tag: VerifyLong}, {Tag: VerifyUninitialized, Value: 7}}, nil},
		{"full", 9, []VerificationTypeInfo{{Tag: VerifyUninitializedThis}}, []VerificationTypeInfo{{Tag: VerifyNull}}},
	}
	if len(smt.Entries) != len(want) {
		t.Fatalf("len(Entries) = %d, want %d", len(smt.Entries), len(want))
	}
	for i, w := range want {
		f := smt.Entries[i]
		if f.Kind() != w.kind || f.OffsetDelta != w.delta {
			t.Errorf("frame %d = %s delta %d, want %s delta %d", i, f.Kind(), f.OffsetDelta, w.kind, w.delta)
		}
		if !equalTypes(f.Locals, w.locals) {
			t.Errorf("frame %d locals = %+v, want %+v", i, f.Locals, w.locals)
		}
		if !equalTypes(f.Stack, w.stack) {
			t.Errorf("frame %d stack = %+v, want %+v", i, f.Stack, w.stack)
		}
	}
}

func TestStackMapTableMalformed(t *testing.T) {
	tests := []struct {
		name   string
		frames func(tc *testClass) []byte
		want   error
	}{
		{"reserved frame type", func(*testClass) []byte {
			return cat(u2(1), []byte{128})
		}, ErrMalformedAttribute},
		{"unknown verification tag", func(*testClass) []byte {
			return cat(u2(1), []byte{64, 9})
		}, ErrMalformedAttribute},
		{"object is not a class", func(tc *testClass) []byte {
			return cat(u2(1), []byte{64, byte(VerifyObject)}, u2(tc.pool.utf8("Main")))
		}, ErrInvalidConstantPoolReference},
		{"missing frames", func(*testClass) []byte {
			return u2(2)
		}, ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestClass()
			tc.addMethod(AccPublic, "run", "()V",
				tc.code(1, 1, []byte{0xB1}, nil, tc.attr("StackMapTable", tt.frames(tc))))
			_, err := Parse(tc.bytes())
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClassLevelAttributes(t *testing.T) {
	tc := newTestClass()
	p := tc.pool
	host := p.class("Outer")
	inner := p.class("Main$Inner")
	sub := p.class("Sub")
	bsm := p.methodref("java/lang/invoke/LambdaMetafactory", "metafactory", "()V")
	handle := p.add(ConstantMethodHandle, cat([]byte{byte(RefInvokeStatic)}, u2(bsm))...)
	arg := p.str("arg")

	tc.attributes = append(tc.attributes,
		tc.attr("NestHost", u2(host)),
		tc.attr("NestMembers", u2(1), u2(inner)),
		tc.attr("PermittedSubclasses", u2(1), u2(sub)),
		tc.attr("BootstrapMethods", u2(1), u2(handle), u2(1), u2(arg)),
		tc.attr("Signature", u2(p.utf8("Ljava/lang/Object;"))),
	)

	cf, err := Parse(tc.bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if nh := cf.GetAttribute("NestHost").AsNestHost(); nh == nil || nh.HostClassIndex != host {
		t.Errorf("NestHost = %+v, want #%d", nh, host)
	}
	if nm := cf.GetAttribute("NestMembers").AsNestMembers(); nm == nil || len(nm.Classes) != 1 || nm.Classes[0] != inner {
		t.Errorf("NestMembers = %+v, want [#%d]", nm, inner)
	}
	if ps := cf.GetAttribute("PermittedSubclasses").AsPermittedSubclasses(); ps == nil || cf.ConstantPool.GetClassName(ps.Classes[0]) != "Sub" {
		t.Errorf("PermittedSubclasses = %+v, want [Sub]", ps)
	}
	bm := cf.GetAttribute("BootstrapMethods").AsBootstrapMethods()
	if bm == nil || len(bm.BootstrapMethods) != 1 {
		t.Fatalf("BootstrapMethods = %+v", bm)
	}
	if got := bm.BootstrapMethods[0]; got.BootstrapMethodRef != handle || len(got.BootstrapArguments) != 1 || got.BootstrapArguments[0] != arg {
		t.Errorf("BootstrapMethods[0] = %+v, want ref #%d args [#%d]", got, handle, arg)
	}
	if cf.GetAttribute("Signature").AsSignature() == nil {
		t.Error("expected Signature attribute")
	}
}

func TestBootstrapMethodMustBeHandle(t *testing.T) {
	tc := newTestClass()
	tc.attributes = append(tc.attributes, tc.attr("BootstrapMethods", u2(1), u2(tc.thisClass), u2(0)))
	if _, err := Parse(tc.bytes()); !errors.Is(err, ErrInvalidConstantPoolReference) {
		t.Errorf("Parse() error = %v, want ErrInvalidConstantPoolReference", err)
	}
}

func TestLineNumberTable(t *testing.T) {
	tc := newTestClass()
	lnt := tc.attr("LineNumberTable", u2(2), u2(0), u2(3), u2(4), u2(5))
	tc.addMethod(AccPublic, "run", "()V", tc.code(1, 1, []byte{0, 0, 0, 0, 0xB1}, nil, lnt))

	cf, err := Parse(tc.bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	table := cf.Methods[0].Code().GetAttribute("LineNumberTable").AsLineNumberTable()
	want := []LineNumberEntry{{StartPC: 0, LineNumber: 3}, {StartPC: 4, LineNumber: 5}}
	if table == nil || len(table.LineNumberTable) != len(want) {
		t.Fatalf("LineNumberTable = %+v, want %+v", table, want)
	}
	for i := range want {
		if table.LineNumberTable[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, table.LineNumberTable[i], want[i])
		}
	}
}

func equalTypes(a, b []VerificationTypeInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
