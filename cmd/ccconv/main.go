// Command ccconv transcodes one CEA-608/708 CC wire format to another at
// a possibly different framerate, reading a single buffer from stdin and
// writing the concatenated converted output buffers to stdout. The
// command-tree shape (one root cobra.Command carrying pflag-backed
// flags, plus a version subcommand) follows wnielson-go-mediainfo/cmd/mediainfo's
// cobra bootstrap.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zsiec/mxfcap/cc708"
	"github.com/zsiec/mxfcap/ccconvert"
)

var version = "dev"

var formatNames = map[string]ccconvert.Format{
	"raw608-f1": ccconvert.FormatRaw608F1,
	"raw608-f2": ccconvert.FormatRaw608F2,
	"s334-1a":   ccconvert.FormatS334,
	"cc-data":   ccconvert.FormatCCData,
	"cdp":       ccconvert.FormatCDP,
}

func parseFormat(name string) (ccconvert.Format, error) {
	f, ok := formatNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown format %q (want one of raw608-f1, raw608-f2, s334-1a, cc-data, cdp)", name)
	}
	return f, nil
}

var (
	inFormat, outFormat string
	inNum, inDen        int
	outNum, outDen      int
	max608, maxCCP      int
	cdpTimecode         bool
)

var rootCmd = &cobra.Command{
	Use:           "ccconv",
	Short:         "Transcode a CEA-608/708 CC buffer between wire formats.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&inFormat, "in-format", "cc-data", "input wire format")
	flags.StringVar(&outFormat, "out-format", "cc-data", "output wire format")
	flags.IntVar(&inNum, "in-rate-num", 30000, "input framerate numerator")
	flags.IntVar(&inDen, "in-rate-den", 1001, "input framerate denominator")
	flags.IntVar(&outNum, "out-rate-num", 30000, "output framerate numerator")
	flags.IntVar(&outDen, "out-rate-den", 1001, "output framerate denominator")
	flags.IntVar(&max608, "max608", 2, "max CEA-608 pairs per field the converter buffers")
	flags.IntVar(&maxCCP, "maxccp", 10, "max CCP triplets the converter buffers")
	flags.BoolVar(&cdpTimecode, "cdp-timecode", false, "include a timecode section in CDP output")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print ccconv version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}

func run(cmd *cobra.Command, _ []string) error {
	in, err := parseFormat(inFormat)
	if err != nil {
		return err
	}
	out, err := parseFormat(outFormat)
	if err != nil {
		return err
	}

	mode := cc708.ModeCCData
	if cdpTimecode {
		mode |= cc708.ModeTimeCode
	}

	conv, err := ccconvert.NewConverter(
		in, out,
		ccconvert.Rate{Num: inNum, Den: inDen},
		ccconvert.Rate{Num: outNum, Den: outDen},
		mode, max608, maxCCP,
	)
	if err != nil {
		return fmt.Errorf("building converter: %w", err)
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	outputs, err := conv.Push(data, nil)
	if err != nil {
		return fmt.Errorf("converting: %w", err)
	}

	for _, buf := range outputs {
		if _, err := cmd.OutOrStdout().Write(buf); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	slog.Debug("ccconv finished", "in", inFormat, "out", outFormat, "buffers", len(outputs))
	return nil
}

func main() {
	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
