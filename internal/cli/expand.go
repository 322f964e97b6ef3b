package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/recurrence"
)

// definitionFile is the on-disk form of a schedule row read by expand.
type definitionFile struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	Category         string     `json:"category"`
	Color            string     `json:"color"`
	IsRecurring      bool       `json:"is_recurring"`
	RecurringPattern string     `json:"recurring_pattern"`
	SeriesID         string     `json:"series_id"`
	ExceptionDate    *time.Time `json:"exception_date"`
	Cancelled        bool       `json:"cancelled"`
}

func (f definitionFile) definition() domain.EventDefinition {
	return domain.EventDefinition{
		ID:               f.ID,
		Title:            f.Title,
		Description:      f.Description,
		StartTime:        f.StartTime.UTC(),
		EndTime:          f.EndTime.UTC(),
		Category:         domain.Category(f.Category),
		Color:            f.Color,
		IsRecurring:      f.IsRecurring,
		RecurringPattern: domain.Pattern(f.RecurringPattern),
		SeriesID:         f.SeriesID,
		ExceptionDate:    f.ExceptionDate,
		Cancelled:        f.Cancelled,
	}
}

type expandOptions struct {
	from     string
	to       string
	timezone string
}

// NewExpandCommand creates the expand command, which prints the occurrences
// a set of schedule rows produces without touching a store.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &expandOptions{}

	cmd := &cobra.Command{
		Use:   "expand <rows.json>",
		Short: "Print the occurrences of schedule rows",
		Long: `Expand reads a JSON array of schedule rows (the shape stored in the
schedules table) and prints every occurrence they produce, applying
exception rows and the default horizons.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return runExpand(cmd.OutOrStdout(), cmd.ErrOrStderr(), rootOpts.Format, opts, f)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "only show occurrences ending after this RFC3339 time")
	cmd.Flags().StringVar(&opts.to, "to", "", "only show occurrences starting before this RFC3339 time")
	cmd.Flags().StringVar(&opts.timezone, "tz", "UTC", "IANA zone in which steps are computed")
	return cmd
}

func runExpand(out, errOut io.Writer, format string, opts *expandOptions, r io.Reader) error {
	var rows []definitionFile
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}

	window, err := opts.window()
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", opts.timezone, err)
	}

	defs := make([]domain.EventDefinition, 0, len(rows))
	for i, row := range rows {
		def := row.definition()
		if def.ID == "" {
			def.ID = fmt.Sprintf("row%d", i+1)
		}
		defs = append(defs, def)
	}

	res := recurrence.NewExpander(recurrence.WithLocation(loc)).ExpandSet(defs, window)
	for _, id := range res.Degraded {
		fmt.Fprintf(errOut, "WARN: unknown recurring pattern, showing single occurrence event_id=%s\n", id)
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(toOccurrenceLines(res.Occurrences))
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tEND\tTITLE")
	for _, occ := range res.Occurrences {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", occ.ID, occ.Start.Format(time.RFC3339), occ.End.Format(time.RFC3339), occ.Title)
	}
	return tw.Flush()
}

func (o *expandOptions) window() (domain.Window, error) {
	var w domain.Window
	var err error
	if o.from != "" {
		if w.From, err = time.Parse(time.RFC3339, o.from); err != nil {
			return w, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if o.to != "" {
		if w.To, err = time.Parse(time.RFC3339, o.to); err != nil {
			return w, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return w, nil
}

type occurrenceLine struct {
	ID           string    `json:"id"`
	DefinitionID string    `json:"definition_id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start_time"`
	End          time.Time `json:"end_time"`
	Recurring    bool      `json:"is_recurring_instance"`
}

func toOccurrenceLines(occs []domain.Occurrence) []occurrenceLine {
	out := make([]occurrenceLine, 0, len(occs))
	for _, occ := range occs {
		out = append(out, occurrenceLine{
			ID:           occ.ID,
			DefinitionID: occ.DefinitionID,
			Title:        occ.Title,
			Start:        occ.Start,
			End:          occ.End,
			Recurring:    occ.IsRecurringInstance,
		})
	}
	return out
}
