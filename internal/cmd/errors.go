package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/exitcode"
	"github.com/felixgeelhaar/gemora/internal/ux"
)

var errorsCmd = &cobra.Command{
	Use:   "errors [code]",
	Short: "List error codes and the exit codes they produce",
	Long: `List the error codes gemora reports, what they mean and the process exit
code each one produces. Pass a code or a family prefix to filter.

Examples:
  gemora errors
  gemora errors AUTH
  gemora errors NET-001`,
	Args: cobra.MaximumNArgs(1),
	RunE: runErrors,
}

func init() {
	rootCmd.AddCommand(errorsCmd)
}

type errorEntry struct {
	Code        errors.ErrorCode `json:"code" yaml:"code"`
	Description string           `json:"description" yaml:"description"`
	ExitCode    int              `json:"exitCode" yaml:"exitCode"`
}

func runErrors(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	filter := ""
	if len(args) == 1 {
		filter = strings.ToUpper(args[0])
	}

	var entries []errorEntry
	for _, code := range errors.Codes() {
		if filter != "" && string(code) != filter && code.Family() != filter {
			continue
		}
		desc, _ := errors.Describe(code)
		entries = append(entries, errorEntry{
			Code:        code,
			Description: desc,
			ExitCode:    exitcode.DetermineExitCode(errors.New(code, desc)),
		})
	}
	if len(entries) == 0 {
		return errors.New(errors.ErrCodeHTTPNotFound, "unknown error code: "+filter).
			WithSuggestion("Run 'gemora errors' to list all codes")
	}

	table := ux.Table{Columns: []string{"CODE", "EXIT", "DESCRIPTION"}}
	for _, e := range entries {
		table.Data = append(table.Data, []string{
			string(e.Code),
			strconv.Itoa(e.ExitCode) + " " + exitcode.GetExitCodeDescription(e.ExitCode),
			e.Description,
		})
	}

	format, noColor := cc.Format, cc.NoColor
	if run.config != nil {
		if format == "" {
			format = run.config.Defaults.Format
		}
		noColor = noColor || run.config.Defaults.NoColor
	}
	return emit(cmd, format, noColor, entries, table)
}
