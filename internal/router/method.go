package router

import "fmt"

// Method is the operation a request names.
type Method int

const (
	MethodCreate Method = iota + 1
	MethodPut
	MethodTransfer
	MethodTake
	MethodShutdown
)

var methodNames = map[Method]string{
	MethodCreate:   "CREATE",
	MethodPut:      "PUT",
	MethodTransfer: "TRANSFER",
	MethodTake:     "TAKE",
	MethodShutdown: "SHUTDOWN",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// UnknownMethodError is returned by ParseMethod for an unrecognised name.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string { return fmt.Sprintf("unknown method %q", e.Method) }

// ParseMethod maps a wire method name to a Method. Names are case-sensitive.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, &UnknownMethodError{Method: s}
}
