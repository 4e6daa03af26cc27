package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/charliek/logdesk/internal/present"
)

// printer writes command results either as rendered messages or as JSON
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(cmd *cobra.Command) *printer {
	return &printer{w: cmd.OutOrStdout(), json: jsonOutput}
}

// message prints m, or v as JSON in --json mode
func (p *printer) message(m present.Message, v any) error {
	if p.json {
		return p.encode(v)
	}
	_, err := fmt.Fprintln(p.w, present.Terminal(m, 0))
	return err
}

// list prints one item per line, or a JSON array in --json mode
func (p *printer) list(items []string) error {
	if p.json {
		return p.encode(items)
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(p.w, item); err != nil {
			return err
		}
	}
	return nil
}

// raw prints a JSON document as received, indented
func (p *printer) raw(doc json.RawMessage) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		_, err := fmt.Fprintln(p.w, string(doc))
		return err
	}
	return p.encode(v)
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
