package qjni

import (
	"github.com/2gis/qtandroidextensions-sub000/jni"
	"go.uber.org/zap"
)

// CheckAndClear clears a pending managed exception and reports whether one
// was pending. With describe set the exception is first printed by the
// runtime.
func CheckAndClear(env jni.Env, describe bool) bool {
	if !env.ExceptionCheck() {
		return false
	}
	if describe {
		env.ExceptionDescribe()
	}
	env.ExceptionClear()
	return true
}

// takeException clears a pending exception and returns its toString
// rendering, or ok == false when none was pending.
func takeException(env jni.Env) (text string, ok bool) {
	if !env.ExceptionCheck() {
		return "", false
	}
	exc := env.ExceptionOccurred()
	env.ExceptionClear()
	if exc == 0 {
		return "", true
	}
	defer env.DeleteLocalRef(exc)
	return describeThrowable(env, exc), true
}

// describeThrowable renders a throwable with its toString method. Failures
// while rendering are swallowed; the result is then the empty string.
func describeThrowable(env jni.Env, exc jni.Ref) string {
	cls := env.GetObjectClass(exc)
	if cls == 0 {
		CheckAndClear(env, false)
		return ""
	}
	defer env.DeleteLocalRef(cls)
	m := env.GetMethodID(cls, "toString", "()Ljava/lang/String;")
	if m == 0 {
		CheckAndClear(env, false)
		return ""
	}
	s := env.CallMethodA(exc, m, jni.Object, nil).Ref()
	if CheckAndClear(env, false) {
		if s != 0 {
			env.DeleteLocalRef(s)
		}
		return ""
	}
	return takeString(env, s)
}

// javaCallError converts a pending exception into an error. It returns nil
// when no exception is pending.
func javaCallError(env jni.Env, class, member, site string) error {
	text, ok := takeException(env)
	if !ok {
		return nil
	}
	log().Debug("java exception",
		zap.String("class", class),
		zap.String("member", member),
		zap.String("site", site),
		zap.String("exception", text))
	e := newError(ErrJavaCall, class, member, site, "%s", text)
	e.Exception = text
	return e
}

// swallowException clears a pending exception raised by a best-effort
// conversion and logs it. It reports whether one was pending.
func swallowException(env jni.Env, site string) bool {
	text, ok := takeException(env)
	if ok {
		log().Warn("ignoring java exception", zap.String("site", site), zap.String("exception", text))
	}
	return ok
}
