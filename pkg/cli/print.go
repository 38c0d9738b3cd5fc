package cli

import (
	"io"

	"github.com/getmockd/ewsoap/pkg/cli/internal/output"
)

// printResult outputs a single operation result.
//
// Contract: when --json is active, ONLY the JSON encoding of data is written
// to w. textFn is called only in text mode.
func (g *globalFlags) printResult(w io.Writer, data any, textFn func() error) error {
	if g.jsonOutput {
		return output.JSON(w, data)
	}
	return textFn()
}
