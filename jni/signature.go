package jni

import (
	"fmt"
	"strings"
)

// ObjectType returns the field-descriptor form of a class name:
// "java/lang/String" becomes "Ljava/lang/String;". Names already in
// descriptor form ("L...;"), array descriptors ("[I", "[Ljava/lang/Object;")
// and single primitive codes are returned unchanged, so the function is
// idempotent.
func ObjectType(name string) string {
	switch {
	case name == "":
		return ""
	case IsArrayType(name):
		return name
	case len(name) == 1 && (Type(name[0]).IsPrimitive() || Type(name[0]) == Void):
		return name
	case isDescriptor(name):
		return name
	}
	return "L" + name + ";"
}

// ClassName returns the name FindClass expects for a type descriptor:
// "Lpkg/Cls;" becomes "pkg/Cls". Array descriptors and bare slash names are
// returned unchanged.
func ClassName(desc string) string {
	if isDescriptor(desc) {
		return desc[1 : len(desc)-1]
	}
	return desc
}

// IsArrayType reports whether a class name or descriptor denotes an array.
// Arrays have no retrievable class through GetObjectClass-based lookups in
// every runtime, so callers skip class null-checks for them.
func IsArrayType(name string) bool {
	return strings.HasPrefix(name, "[")
}

func isDescriptor(name string) bool {
	return len(name) >= 3 && name[0] == 'L' && name[len(name)-1] == ';'
}

// MethodSignature joins parameter codes and a return code:
// MethodSignature("ILjava/lang/String;", "V") == "(ILjava/lang/String;)V".
func MethodSignature(params, ret string) string {
	return "(" + params + ")" + ret
}

// ReturnType extracts the return type code of a method signature.
func ReturnType(sig string) (Type, error) {
	i := strings.LastIndexByte(sig, ')')
	if !strings.HasPrefix(sig, "(") || i < 0 || i == len(sig)-1 {
		return 0, fmt.Errorf("jni: malformed method signature %q", sig)
	}
	t := Type(sig[i+1])
	switch {
	case t == Void, t.IsPrimitive(), t == Array:
		return t, nil
	case t == Object && strings.HasSuffix(sig, ";"):
		return t, nil
	}
	return 0, fmt.Errorf("jni: malformed return type in signature %q", sig)
}

// DotName converts "pkg/sub/Cls" to "pkg.sub.Cls".
func DotName(name string) string { return strings.ReplaceAll(name, "/", ".") }

// SlashName converts "pkg.sub.Cls" to "pkg/sub/Cls".
func SlashName(name string) string { return strings.ReplaceAll(name, ".", "/") }
