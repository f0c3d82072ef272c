package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an output encoding selected with --format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted --format values.
func Formats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat accepts any case; the empty string means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: %s)", s, strings.Join(Formats(), ", "))
	}
}

// Formatter writes command results.
type Formatter interface {
	Format(data any) error
}

// FormatterOptions configures a Formatter. A nil Writer means stdout.
type FormatterOptions struct {
	Writer  io.Writer
	NoColor bool
	// Compact drops indentation from JSON output.
	Compact bool
}

// NewFormatter returns the formatter for format.
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	o := FormatterOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Writer == nil {
		o.Writer = os.Stdout
	}

	switch f {
	case FormatJSON:
		return &JSONFormatter{opts: o}, nil
	case FormatYAML:
		return &YAMLFormatter{opts: o}, nil
	default:
		return &TextFormatter{opts: o}, nil
	}
}

// JSONFormatter writes indented JSON, or one line when Compact is set.
type JSONFormatter struct {
	opts FormatterOptions
}

func (f *JSONFormatter) Format(data any) error {
	enc := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// YAMLFormatter writes YAML with two-space indentation.
type YAMLFormatter struct {
	opts FormatterOptions
}

func (f *YAMLFormatter) Format(data any) error {
	enc := yaml.NewEncoder(f.opts.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// TextFormatter renders tables and Stringers for people. Anything else is
// written as YAML.
type TextFormatter struct {
	opts FormatterOptions
}

func (f *TextFormatter) Format(data any) error {
	var text string
	switch v := data.(type) {
	case string:
		text = v
	case Tabular:
		text = RenderTable(v, f.opts.NoColor)
	case fmt.Stringer:
		text = v.String()
	default:
		return (&YAMLFormatter{opts: f.opts}).Format(data)
	}
	_, err := fmt.Fprintln(f.opts.Writer, text)
	return err
}
