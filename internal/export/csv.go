package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ContentType is served with every CSV download.
const ContentType = "text/csv;charset=utf-8"

// Escape quotes a field only when it holds a double quote, comma or newline,
// doubling any embedded quotes.
func Escape(field string) string {
	if !strings.ContainsAny(field, "\",\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Encode renders a header and rows as CSV text. Lines are joined with "\n";
// there is no trailing newline.
func Encode(header []string, rows [][]any) string {
	var b strings.Builder
	_ = Write(&b, header, rows)
	return b.String()
}

// Write streams the same output as Encode.
func Write(w io.Writer, header []string, rows [][]any) error {
	line := make([]string, 0, len(header))
	for _, h := range header {
		line = append(line, Escape(h))
	}
	if _, err := io.WriteString(w, strings.Join(line, ",")); err != nil {
		return err
	}
	for _, r := range rows {
		line = line[:0]
		for _, v := range r {
			line = append(line, Escape(Format(v)))
		}
		if _, err := io.WriteString(w, "\n"+strings.Join(line, ",")); err != nil {
			return err
		}
	}
	return nil
}

// Format turns a cell value into its CSV text; nil values become "".
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	case *float64:
		if t == nil {
			return ""
		}
		return strconv.FormatFloat(*t, 'f', 2, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
