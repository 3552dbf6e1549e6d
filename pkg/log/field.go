package log

import "time"

// Field is a single structured key/value pair attached to a record.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a field from any value.
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

func Str(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Dur renders a duration in its String form.
func Dur(key string, value time.Duration) Field { return Field{Key: key, Value: value.String()} }

// Err attaches err under the "error" key; a nil error renders as empty.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component tags records with the producing subsystem.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }
