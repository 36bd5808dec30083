package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// Common static errors used throughout the commands package.
var (
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrProjectNotFound  = errors.New("project not found")
	ErrIssueNotFound    = errors.New("issue not found")
	ErrTitleRequired    = errors.New("title is required (--title)")
	ErrInvalidHeader    = errors.New("header must be KEY=VALUE")
)

func outputFormat() string {
	output := viper.GetString("output")
	if output == "" {
		return constants.FormatTable
	}

	return output
}

// printStructured writes value as JSON or YAML. It reports false for the
// table format so the caller can render its own table.
func printStructured(out io.Writer, value any) (bool, error) {
	switch outputFormat() {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return true, encoder.Encode(value)
	case constants.FormatYAML:
		return true, yaml.NewEncoder(out).Encode(normalizeForYAML(value))
	case constants.FormatTable:
		return false, nil
	default:
		return true, fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, outputFormat())
	}
}

// normalizeForYAML converts json.Number leaves so yaml.v3 emits numbers
// instead of quoted strings.
func normalizeForYAML(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return n
		}

		if f, err := typed.Float64(); err == nil {
			return f
		}

		return typed.String()
	case gitlab.Record:
		return normalizeForYAML(map[string]any(typed))
	case []gitlab.Record:
		items := make([]any, 0, len(typed))
		for _, item := range typed {
			items = append(items, normalizeForYAML(item))
		}

		return items
	case map[string]any:
		result := make(map[string]any, len(typed))
		for key, item := range typed {
			result[key] = normalizeForYAML(item)
		}

		return result
	case []any:
		items := make([]any, 0, len(typed))
		for _, item := range typed {
			items = append(items, normalizeForYAML(item))
		}

		return items
	default:
		return typed
	}
}

// renderRecord prints the given keys of a record as a property table.
func renderRecord(out io.Writer, record gitlab.Record, keys []string) error {
	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	for _, key := range keys {
		_ = table.Append(columnTitle(key), displayValue(record[key]))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderRecords prints records as rows with the given columns.
func renderRecords(out io.Writer, records []gitlab.Record, columns []string) error {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No results found")

		return nil
	}

	headers := make([]any, 0, len(columns))
	for _, column := range columns {
		headers = append(headers, columnTitle(column))
	}

	table := tablewriter.NewWriter(out)
	table.Header(headers...)

	for _, record := range records {
		row := make([]any, 0, len(columns))
		for _, column := range columns {
			row = append(row, displayValue(record[column]))
		}

		_ = table.Append(row...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func columnTitle(key string) string {
	title := cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))

	return strings.ReplaceAll(title, "Id", "ID")
}

func displayValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		if typed == "" {
			return constants.NotAvailable
		}

		return truncate(typed, constants.DescriptionDisplayLength)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, fmt.Sprint(item))
		}

		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		return "{" + strings.Join(keys, ", ") + "}"
	default:
		return fmt.Sprint(typed)
	}
}

func truncate(value string, length int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	if len(value) <= length {
		return value
	}

	return value[:length-3] + "..."
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", constants.ErrInvalidID, value)
	}

	return id, nil
}

// FormatError renders an error for the terminal. Normalized API errors are
// shown with their name and status.
func FormatError(err error) string {
	gitlabErr, ok := gitlab.AsError(err)
	if !ok {
		return "Error: " + err.Error()
	}

	var builder strings.Builder

	fmt.Fprintf(&builder, "Error: %s", gitlabErr.Name)

	if gitlabErr.HasStatusCode() {
		fmt.Fprintf(&builder, " (HTTP %d)", gitlabErr.StatusCode)
	}

	fmt.Fprintf(&builder, ": %s", gitlabErr.Message)

	for _, subErr := range gitlabErr.Errors {
		fmt.Fprintf(&builder, "\n  - %v", subErr)
	}

	return builder.String()
}
