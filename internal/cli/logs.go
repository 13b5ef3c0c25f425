package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"entityaudit/internal/audit"
	"entityaudit/internal/pagination"
	"entityaudit/internal/services"
)

// LogsCmd returns the command that prints one subject's audit history.
func LogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <subject_type> [subject_id]",
		Short: "Show the audit history of an entity",
		Long: `Show the audit history of an entity, newest first.

Omit subject_id to list records written for entities that had no primary
key yet.

Examples:
  auditctl logs Dog 42
  auditctl logs Dog 42 --action update --diff
  auditctl logs Dog 42 --failed`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectType := args[0]
			subjectID := ""
			if len(args) == 2 {
				subjectID = args[1]
			}

			action, _ := cmd.Flags().GetString("action")
			failed, _ := cmd.Flags().GetBool("failed")
			showDiff, _ := cmd.Flags().GetBool("diff")
			page, err := pageFlags(cmd)
			if err != nil {
				return err
			}

			filter := services.AuditLogFilter{Action: action}
			if failed {
				success := false
				filter.Success = &success
			}

			svc, cleanup, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := svc.GetSubjectLogs(cmd.Context(), subjectType, subjectID, filter, page)
			if err != nil {
				return fmt.Errorf("failed to read audit logs: %w", err)
			}

			printRecords(cmd.OutOrStdout(), resp, showDiff)
			return nil
		},
	}

	cmd.Flags().String("action", "", "Only show records for this action")
	cmd.Flags().Bool("failed", false, "Only show failed operations")
	cmd.Flags().Bool("diff", false, "Print changed attributes as a unified diff")
	addPageFlags(cmd)
	return cmd
}

// RecentCmd returns the command that prints the newest records across all
// entities.
func RecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the newest audit records across all entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			showDiff, _ := cmd.Flags().GetBool("diff")
			page, err := pageFlags(cmd)
			if err != nil {
				return err
			}

			svc, cleanup, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := svc.GetRecentLogs(cmd.Context(), page)
			if err != nil {
				return fmt.Errorf("failed to read audit logs: %w", err)
			}

			printRecords(cmd.OutOrStdout(), resp, showDiff)
			return nil
		},
	}

	cmd.Flags().Bool("diff", false, "Print changed attributes as a unified diff")
	addPageFlags(cmd)
	return cmd
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().IntP("limit", "n", 20, "Records per page (max 100)")
}

func pageFlags(cmd *cobra.Command) (pagination.PageRequest, error) {
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	if page < 1 || page > pagination.MaxPage {
		return pagination.PageRequest{}, fmt.Errorf("--page must be between 1 and %d", pagination.MaxPage)
	}
	if limit < 1 || limit > pagination.MaxPageSize {
		return pagination.PageRequest{}, fmt.Errorf("--limit must be between 1 and %d", pagination.MaxPageSize)
	}
	return pagination.PageRequest{Page: page, PageSize: limit}, nil
}

func printRecords(w io.Writer, resp *pagination.PageResponse[audit.Record], showDiff bool) {
	if len(resp.Data) == 0 {
		fmt.Fprintln(w, "No audit records found.")
		return
	}

	fmt.Fprintf(w, "Showing %d of %d records (page %d/%d):\n\n",
		len(resp.Data), resp.TotalItems, resp.Page, resp.TotalPages)

	for i := range resp.Data {
		printRecord(w, &resp.Data[i], showDiff)
	}
}

// printRecord writes one line per record:
// timestamp | actor | status action | type/id
func printRecord(w io.Writer, rec *audit.Record, showDiff bool) {
	actor := rec.Actor
	if actor == "" {
		actor = "-"
	}
	subjectID := rec.SubjectID
	if subjectID == "" {
		subjectID = "(new)"
	}

	fmt.Fprintf(w, "%s | %-12s | %s %s | %s/%s",
		rec.CreatedAt.Local().Format(time.DateTime),
		actor,
		statusIcon(rec.Success),
		rec.Action,
		rec.SubjectType,
		subjectID,
	)
	if !rec.Success && rec.Error != "" {
		fmt.Fprintf(w, " | %s", color.New(color.FgRed).Sprint(rec.Error))
	}
	fmt.Fprintln(w)

	if len(rec.Metadata) == 0 {
		return
	}
	if showDiff {
		for _, line := range strings.SplitAfter(audit.Diff(rec.Metadata), "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, "    ", colorDiffLine(line))
		}
		return
	}
	for _, name := range rec.Metadata.Keys() {
		change := rec.Metadata[name]
		fmt.Fprintf(w, "    %s: %v -> %v\n", name, change.Old, change.New)
	}
}

func statusIcon(success bool) string {
	if success {
		return color.New(color.FgGreen).Sprint("✓")
	}
	return color.New(color.FgRed).Sprint("✗")
}

func colorDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return color.New(color.Bold).Sprint(line)
	case strings.HasPrefix(line, "+"):
		return color.New(color.FgGreen).Sprint(line)
	case strings.HasPrefix(line, "-"):
		return color.New(color.FgRed).Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return color.New(color.FgCyan).Sprint(line)
	default:
		return line
	}
}
