package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/prio/internal/observability"
)

var (
	eventsSince   string
	eventsType    string
	eventsLevel   string
	eventsSession string
	eventsJSON    bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recorded events from the event log",
	Long: `List events from the event log, oldest first.

--type matches an exact event type, or every type starting with the value
when it ends in "." (for example "tasks."). --level keeps INFO, WARN or
ERROR events only. --session keeps the events written by one prio process.`,
	Example: `  prio events --since 24h --level error
  prio events --type tasks. --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (events may be disabled)")
		}

		filter, err := eventsFilter()
		if err != nil {
			return err
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}

		out := cmd.OutOrStdout()
		if eventsJSON {
			if events == nil {
				events = []observability.Event{}
			}
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(events) == 0 {
			fmt.Fprintln(out, "No events found.")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(out, "%s  %-5s  %-22s  %-8s  %s\n",
				e.Time.Local().Format(time.DateTime), e.Level, e.Type, shortSession(e.Session), e.Message)
		}
		return nil
	},
}

// eventsFilter builds the event filter from the command flags.
func eventsFilter() (observability.EventFilter, error) {
	since, err := parseSinceDuration(eventsSince)
	if err != nil {
		return observability.EventFilter{}, fmt.Errorf("parsing --since: %w", err)
	}

	level := strings.ToUpper(strings.TrimSpace(eventsLevel))
	switch level {
	case "", observability.LevelInfo, observability.LevelWarn, observability.LevelError:
	default:
		return observability.EventFilter{}, fmt.Errorf("invalid --level %q (use info, warn or error)", eventsLevel)
	}

	return observability.EventFilter{
		Since:   &since,
		Type:    strings.TrimSpace(eventsType),
		Level:   level,
		Session: strings.TrimSpace(eventsSession),
	}, nil
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	eventsCmd.Flags().StringVar(&eventsSince, "since", "7d", "Time window (e.g. 7d, 30d, 24h)")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", `Event type, or a prefix ending in "."`)
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "Only events at this level (info, warn, error)")
	eventsCmd.Flags().StringVar(&eventsSession, "session", "", "Only events from this session id")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	rootCmd.AddCommand(eventsCmd)
}
