package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Output formats.
const (
	outputAuto  = "auto"
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// resolveOutput turns "auto" into table on a terminal and JSON otherwise.
func resolveOutput(format string, w io.Writer) (string, error) {
	switch f := strings.ToLower(format); f {
	case "", outputAuto:
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) && os.Getenv("CI") == "" {
			return outputTable, nil
		}
		return outputJSON, nil
	case outputTable, outputJSON, outputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("output format %q (want auto, table, json or yaml): %w", format, sphelper.ErrInvalidArgument)
	}
}

// render writes v in the requested format. table draws the human-readable
// form onto a tabwriter.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	format, err := resolveOutput(format, w)
	if err != nil {
		return err
	}

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

// displayValue makes driver values printable in every format: valid UTF-8
// bytes become strings, other bytes base64, times RFC 3339.
func displayValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return map[string]any{
			"type":   "bytes",
			"base64": base64.StdEncoding.EncodeToString(x),
		}
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}

func cell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(displayValue(v))
}
