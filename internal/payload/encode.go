package payload

import (
	"strconv"
	"strings"
	"time"
)

// Object builds a JSON object with fields in insertion order. String
// values are escaped; numbers and booleans are emitted unquoted.
type Object struct {
	b strings.Builder
	n int
}

func (o *Object) sep() {
	if o.n > 0 {
		o.b.WriteByte(',')
	}
	o.n++
}

func (o *Object) key(k string) {
	o.sep()
	o.b.WriteByte('"')
	o.b.WriteString(k)
	o.b.WriteString(`":`)
}

// PutString adds an escaped string field.
func (o *Object) PutString(k, v string) *Object {
	o.key(k)
	o.b.WriteByte('"')
	o.b.WriteString(Escape(v))
	o.b.WriteByte('"')
	return o
}

// PutUint adds an unsigned integer field.
func (o *Object) PutUint(k string, v uint64) *Object {
	o.key(k)
	o.b.WriteString(strconv.FormatUint(v, 10))
	return o
}

// PutInt adds a signed integer field.
func (o *Object) PutInt(k string, v int64) *Object {
	o.key(k)
	o.b.WriteString(strconv.FormatInt(v, 10))
	return o
}

// PutFloat adds a floating point field.
func (o *Object) PutFloat(k string, v float64) *Object {
	o.key(k)
	o.b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	return o
}

// PutFlag adds a boolean field encoded as 0/1 for compatibility with the
// numeric extractors.
func (o *Object) PutFlag(k string, v bool) *Object {
	if v {
		return o.PutUint(k, 1)
	}
	return o.PutUint(k, 0)
}

// PutObject adds a nested object field.
func (o *Object) PutObject(k string, v *Object) *Object {
	o.key(k)
	o.b.WriteString(v.JSON())
	return o
}

// JSON renders the object.
func (o *Object) JSON() string {
	return "{" + o.b.String() + "}"
}

// Encode wraps a domain object into the wire envelope: a top-level event
// string, the nested domain block, and an epoch-millisecond timestamp.
func Encode(eventType, blockKey string, block *Object, ts time.Time) string {
	var env Object
	env.PutString("event", eventType)
	env.PutObject(blockKey, block)
	env.PutInt("timestamp", ts.UnixMilli())
	return env.JSON()
}
