package qjni

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

// kind is one class of bridge failure. Kinds form a small tree rooted at
// ErrBridge, so errors.Is works against any ancestor.
type kind struct {
	name string
	base error
}

func (k *kind) Error() string { return "qjni: " + k.name }
func (k *kind) Unwrap() error { return k.base }

// Error kinds. Every *Error returned by the package wraps exactly one of them.
var (
	// ErrBridge is the base of every bridge error.
	ErrBridge error = &kind{name: "bridge error"}

	// ErrThreadAttach means no execution context could be obtained for the
	// calling thread.
	ErrThreadAttach error = &kind{name: "thread attach failure", base: ErrBridge}

	// ErrRuntimeNotInitialized means no Java VM is registered. It is a
	// refinement of ErrThreadAttach.
	ErrRuntimeNotInitialized error = &kind{name: "runtime not initialized", base: ErrThreadAttach}

	// ErrClassNotFound means a named class could not be resolved.
	ErrClassNotFound error = &kind{name: "class not found", base: ErrBridge}

	// ErrClassNotSet means a class operation ran on a handle without a class.
	ErrClassNotSet error = &kind{name: "class not set", base: ErrBridge}

	// ErrObjectIsNull means an instance operation ran on a null handle.
	ErrObjectIsNull error = &kind{name: "object is null", base: ErrBridge}

	// ErrMethodNotFound means a method id could not be resolved for a name and
	// signature.
	ErrMethodNotFound error = &kind{name: "method not found", base: ErrBridge}

	// ErrFieldNotFound means a field id could not be resolved for a name and
	// signature.
	ErrFieldNotFound error = &kind{name: "field not found", base: ErrBridge}

	// ErrJavaCall means the managed call raised an exception.
	ErrJavaCall error = &kind{name: "java call exception", base: ErrBridge}
)

// Error describes a failed bridge operation.
type Error struct {
	Kind     error  // one of the Err* kinds
	Class    string // class the operation targeted
	Member   string // method or field name
	CallSite string // bridge operation, e.g. "CallInt"
	Message  string

	// ThreadID and Status are set for thread attach failures.
	ThreadID int64
	Status   jni.Status

	// Exception is the managed exception rendered by its toString, set for
	// ErrJavaCall.
	Exception string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	switch {
	case e.Class != "" && e.Member != "":
		b.WriteString(": " + e.Class + "." + e.Member)
	case e.Class != "":
		b.WriteString(": " + e.Class)
	case e.Member != "":
		b.WriteString(": " + e.Member)
	}
	if e.CallSite != "" {
		b.WriteString(" (" + e.CallSite + ")")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error { return e.Kind }

func newError(k error, class, member, site, format string, args ...any) *Error {
	e := &Error{Kind: k, Class: class, Member: member, CallSite: site}
	if format != "" {
		e.Message = fmt.Sprintf(format, args...)
	}
	return e
}

func attachError(tid int64, st jni.Status, site string) *Error {
	return &Error{
		Kind:     ErrThreadAttach,
		CallSite: site,
		Message:  fmt.Sprintf("thread %d: %s", tid, st),
		ThreadID: tid,
		Status:   st,
	}
}

func classNotSet(name, site string) *Error {
	return newError(ErrClassNotSet, name, "", site, "")
}

func objectIsNull(name, member, site string) *Error {
	return newError(ErrObjectIsNull, name, member, site, "")
}

// IsJavaException reports whether err carries a managed exception and
// returns its rendering.
func IsJavaException(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && errors.Is(e.Kind, ErrJavaCall) {
		return e.Exception, true
	}
	return "", false
}
