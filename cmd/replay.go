package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	applog "wallet/logger"
	"wallet/send"
)

// TimedAction is one row of an action log.
type TimedAction struct {
	At     time.Time
	Action send.Action
}

func replayCommand() *cobra.Command {
	var inputPath, outputPath string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "fold an action log into a send state",
		Long: `replay reads a CSV action log with the columns time,type,payload and
applies every row, in order, to the initial send state. time is RFC 3339,
type is the action type and payload holds the other action fields as a JSON
object. The resulting state is printed as JSON.`,
		Example: `wallet replay --input actions.csv --output state.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputFile, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			defer inputFile.Close()

			csvContent, err := csv.NewReader(inputFile).ReadAll()
			if err != nil {
				return fmt.Errorf("failed to read CSV: %w", err)
			}
			actions, err := ParseCSVToActions(csvContent)
			if err != nil {
				return fmt.Errorf("failed to parse CSV: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputPath != "" {
				outputFile, err := os.Create(outputPath)
				if err != nil {
					return err
				}
				defer outputFile.Close()
				out = outputFile
			}
			return writeState(out, Replay(send.InitialState(), actions))
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "csv input file path (required)")
	_ = cmd.MarkFlagRequired("input")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "json output file path, stdout when empty")

	return cmd
}

// ParseCSVToActions parses an action log. The first row is a header.
func ParseCSVToActions(csvContent [][]string) ([]TimedAction, error) {
	if len(csvContent) == 0 {
		return nil, fmt.Errorf("CSV is empty")
	}

	dataRows := csvContent[1:]
	actions := make([]TimedAction, 0, len(dataRows))
	for i, row := range dataRows {
		line := i + 2 // header is line 1
		if len(row) != 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, but got %d", line, len(row))
		}

		at, err := time.Parse(time.RFC3339, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid time %q: %w", line, row[0], err)
		}

		fields := map[string]json.RawMessage{}
		if payload := strings.TrimSpace(row[2]); payload != "" {
			if err := json.Unmarshal([]byte(payload), &fields); err != nil {
				return nil, fmt.Errorf("row %d: payload must be a JSON object: %w", line, err)
			}
			if fields == nil {
				fields = map[string]json.RawMessage{}
			}
		}
		typ, _ := json.Marshal(strings.TrimSpace(row[1]))
		fields["type"] = typ

		envelope, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		action, err := send.DecodeAction(envelope)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if unknown, ok := action.(send.Unknown); ok {
			applog.Root.Warn().Int("row", line).Str("type", unknown.Kind).Msg("unknown or malformed action, it will be ignored")
		}
		actions = append(actions, TimedAction{At: at, Action: action})
	}
	return actions, nil
}

// Replay applies actions to state in order, each at its own time.
func Replay(state send.State, actions []TimedAction) send.State {
	for _, a := range actions {
		state = send.Reduce(state, a.Action, a.At)
	}
	return state
}

func writeState(w io.Writer, state send.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
