package logger

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Field is a key and its rendered value, printed with every line of the
// logger it is attached to.
type Field interface {
	Key() string
	String() string
}

type Fields []Field

type field struct {
	key, value string
}

func (f field) Key() string    { return f.key }
func (f field) String() string { return f.value }

func StringField(key, value string) Field {
	return field{key: key, value: value}
}

func IntField(key string, value int) Field {
	return field{key: key, value: strconv.Itoa(value)}
}

func DurationField(key string, value time.Duration) Field {
	return field{key: key, value: value.String()}
}

// SeqField tags a line with the dispatch it belongs to, so the lines of
// overlapping requests can be told apart.
func SeqField(seq uint64) Field {
	return field{key: "seq", value: strconv.FormatUint(seq, 10)}
}

// SizeField renders a byte count, such as a fragment body, as "1.2 kB".
func SizeField(key string, n int) Field {
	if n < 0 {
		n = 0
	}
	return field{key: key, value: humanize.Bytes(uint64(n))}
}
