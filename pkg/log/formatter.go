package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// TextFormatter renders entries as a single human-readable line:
//
//	2026-10-19T10:00:00.000Z INFO  listening component=server addr=:8081
type TextFormatter struct {
	// ShowCaller appends caller=file:line when available.
	ShowCaller bool
}

// Format implements Formatter.
func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(e.Timestamp.Format(timeLayout))
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%-5s", e.Level.String())
	b.WriteByte(' ')
	b.WriteString(e.Message)
	for _, k := range sortedKeys(e.Fields) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(fmt.Sprint(renderValue(e.Fields[k]))))
	}
	if f.ShowCaller && e.Caller != "" {
		b.WriteString(" caller=")
		b.WriteString(e.Caller)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// JSONFormatter renders entries as one JSON object per line.
type JSONFormatter struct{}

// Format implements Formatter.
func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	m := make(map[string]interface{}, len(e.Fields)+4)
	for k, v := range e.Fields {
		m[k] = renderValue(v)
	}
	m["time"] = e.Timestamp.Format(timeLayout)
	m["level"] = e.Level.String()
	m["msg"] = e.Message
	if e.Caller != "" {
		m["caller"] = e.Caller
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func renderValue(v interface{}) interface{} {
	switch t := v.(type) {
	case error:
		return t.Error()
	case time.Duration:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return v
	}
}

func sortedKeys(m Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \"\n\t=") {
		return strconv.Quote(s)
	}
	return s
}
