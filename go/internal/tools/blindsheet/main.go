// Command blindsheet prints the blind schedule for a configuration or preset,
// for printing or for checking a structure before a tournament is created.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mcdev12/pokerclock/go/internal/blinds"
	"github.com/mcdev12/pokerclock/go/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type options struct {
	levelMinutes int
	startingBB   int
	antes        bool
	preset       string
	presetsFile  string
	format       string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "blindsheet",
		Short: "Print a tournament blind schedule",
		Long: `Generate the blind schedule for a level duration and starting stack,
or for a named preset, and print it as a table or as YAML.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.levelMinutes, "level-minutes", 20, "minutes per blind level")
	cmd.Flags().IntVar(&opts.startingBB, "starting-bb", 50, "starting stack in big blinds")
	cmd.Flags().BoolVar(&opts.antes, "antes", true, "include antes")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "preset id, overrides the other structure flags")
	cmd.Flags().StringVar(&opts.presetsFile, "presets-file", "", "YAML presets file (defaults to the built-in presets)")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format (table|yaml)")

	return cmd
}

func run(opts *options, w io.Writer) error {
	if opts.format != "table" && opts.format != "yaml" {
		return fmt.Errorf("invalid format %q: must be table or yaml", opts.format)
	}

	cfg, err := blindConfig(opts)
	if err != nil {
		return err
	}

	schedule, err := blinds.Generate(cfg)
	if err != nil {
		return err
	}

	if opts.format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(schedule); err != nil {
			return fmt.Errorf("failed to encode schedule: %w", err)
		}
		return enc.Close()
	}
	return writeTable(w, schedule)
}

func blindConfig(opts *options) (models.BlindConfig, error) {
	if opts.preset == "" {
		return models.BlindConfig{
			LevelDurationMinutes: opts.levelMinutes,
			StartingStackBB:      opts.startingBB,
			AntesEnabled:         opts.antes,
		}, nil
	}

	presets := blinds.DefaultPresets()
	if opts.presetsFile != "" {
		var err error
		if presets, err = blinds.LoadPresets(opts.presetsFile); err != nil {
			return models.BlindConfig{}, err
		}
	}

	preset, err := blinds.FindPreset(presets, opts.preset)
	if err != nil {
		return models.BlindConfig{}, err
	}
	return preset.Config, nil
}

func writeTable(w io.Writer, schedule models.Schedule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tSMALL BLIND\tBIG BLIND\tANTE\tMINUTES")
	for _, level := range schedule.Levels {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n",
			level.Index, level.SmallBlind, level.BigBlind, level.Ante, level.DurationSec/60)
		if brk, ok := schedule.BreakAfter(level.Index); ok {
			fmt.Fprintf(tw, "-\t%s\t\t\t%d\n", brk.Name, brk.DurationSec/60)
		}
	}
	return tw.Flush()
}
