// Command vbidec scans raw VBI line captures for enrolled services and
// writes the decoded CEA-608/708 data as cc_data triplets to stdout.
//
// stdin is a sequence of frames in a minimal container: a big-endian
// uint32 line count, then for each line a uint32 line number, a uint32
// sample count and that many raw sample bytes (format per --format).
// There is no container header; vbidec reads frames until EOF.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zsiec/mxfcap/bitslicer"
	"github.com/zsiec/mxfcap/cc708"
	"github.com/zsiec/mxfcap/vbi"
)

var version = "dev"

var (
	services       string
	videoStd       string
	samplingRate   int
	sampleOffset   int
	samplesPerLine int
	strict         int
)

var videoStds = map[string]vbi.VideoStd{
	"ntsc":  vbi.StdNTSCM,
	"pal":   vbi.StdPAL,
	"secam": vbi.StdSECAM,
	"palm":  vbi.StdPALM,
}

func parseServices(csv string) (vbi.Set, error) {
	var set vbi.Set
	for _, name := range strings.Split(csv, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found := false
		for _, svc := range vbi.ServiceTable {
			if svc.Name == name {
				set |= svc.Flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown service %q", name)
		}
	}
	return set, nil
}

var rootCmd = &cobra.Command{
	Use:           "vbidec",
	Short:         "Scan raw VBI line captures for CEA-608/708 caption services.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&services, "services", "cc-525-f1,cc-525-f2", "comma-separated service names to enroll")
	flags.StringVar(&videoStd, "std", "ntsc", "video standard: ntsc, pal, secam, palm")
	flags.IntVar(&samplingRate, "rate", 14318180, "sampling rate in Hz")
	flags.IntVar(&sampleOffset, "offset", 100, "sample offset to start searching at")
	flags.IntVar(&samplesPerLine, "samples", 1440, "samples captured per line")
	flags.IntVar(&strict, "strict", 0, "strictness level (0, 1, or 2) passed to AddServices")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print vbidec version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}

func readFrame(r io.Reader) (map[int][]byte, error) {
	var lineCount uint32
	if err := binary.Read(r, binary.BigEndian, &lineCount); err != nil {
		return nil, err
	}
	lines := make(map[int][]byte, lineCount)
	for i := uint32(0); i < lineCount; i++ {
		var lineNumber, sampleCount uint32
		if err := binary.Read(r, binary.BigEndian, &lineNumber); err != nil {
			return nil, fmt.Errorf("reading line number: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &sampleCount); err != nil {
			return nil, fmt.Errorf("reading sample count: %w", err)
		}
		buf := make([]byte, sampleCount)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("reading line %d samples: %w", lineNumber, err)
		}
		lines[int(lineNumber)] = buf
	}
	return lines, nil
}

func run(cmd *cobra.Command, _ []string) error {
	std, ok := videoStds[videoStd]
	if !ok {
		return fmt.Errorf("unknown video standard %q", videoStd)
	}
	set, err := parseServices(services)
	if err != nil {
		return err
	}

	decoder := vbi.NewDecoder(vbi.SamplingParams{
		Format:         bitslicer.Gray8{},
		VideoStd:       std,
		SamplingRate:   samplingRate,
		SampleOffset:   sampleOffset,
		SamplesPerLine: samplesPerLine,
	})
	enrolled, err := decoder.AddServices(set, strict)
	if err != nil {
		return fmt.Errorf("enrolling services: %w", err)
	}
	slog.Info("vbidec enrolled services", "requested", set, "enrolled", enrolled)

	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	frames := 0
	for {
		lines, err := readFrame(in)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		frames++

		sliced := decoder.Decode(lines)
		triplets := make([]cc708.Triplet, 0, len(sliced))
		for _, s := range sliced {
			if len(s.Data) < 2 {
				continue
			}
			typ := cc708.CCType608F1
			switch s.ID {
			case vbi.Caption525F2, vbi.Caption625F2, vbi.CEA708RawF2:
				typ = cc708.CCType608F2
			}
			triplets = append(triplets, cc708.Triplet{Valid: true, Type: typ, B1: s.Data[0], B2: s.Data[1]})
		}
		if len(triplets) == 0 {
			continue
		}
		if _, err := out.Write(cc708.EncodeTriplets(triplets)); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	slog.Info("vbidec finished", "frames", frames)
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
