// Command mxfmux muxes one or more raw essence files into a single MXF
// file using the mxf package's Muxer. It registers its own minimal,
// generic essence-element writers ("raw/picture" and "raw/sound")
// against the mxf package's process-wide Registry in init(): spec.md §1
// scopes concrete per-codec writers out of the production mxf package,
// not out of tools built on top of it, so this is where they live.
//
// Each positional argument describes one pad as name:template:file,
// e.g. "v0:raw/picture:frame0.raw". The whole file is pushed as a
// single edit unit; mxfmux is a muxing demonstration, not a real
// capture-to-disk pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/mxfcap/mxf"
)

var version = "dev"

// rawPictureWriter is a generic uncompressed-picture writer: it treats
// every pushed buffer as one already-complete edit unit, with no
// parsing of the essence bytes beyond what Caps declares.
type rawPictureWriter struct {
	descriptor *mxf.CDCIDescriptor
	editRate   mxf.Rational
}

func newRawPictureWriter() mxf.EssenceElementWriter { return &rawPictureWriter{} }

func (w *rawPictureWriter) GetDescriptor(caps mxf.Caps) (mxf.EssenceDescriptor, error) {
	w.descriptor = mxf.NewCDCIDescriptor(mxf.ULEssenceContainerAVCFrameWrapped)
	w.descriptor.StoredWidth = capsIntOr(caps, "width", 1920)
	w.descriptor.StoredHeight = capsIntOr(caps, "height", 1080)
	w.descriptor.AspectRatio = mxf.Rational{Numerator: 16, Denominator: 9}
	w.descriptor.HorizontalSubsampling = 2
	w.descriptor.VerticalSubsampling = 1
	w.descriptor.ComponentDepth = 8
	w.editRate = capsRateOr(caps, 30000, 1001)
	w.descriptor.SampleRate = w.editRate
	return w.descriptor, nil
}

func (w *rawPictureWriter) GetEditRate(desc mxf.EssenceDescriptor, caps mxf.Caps, first *mxf.EssenceBuffer) (mxf.Rational, error) {
	return w.editRate, nil
}

func (w *rawPictureWriter) GetTrackNumberTemplate(desc mxf.EssenceDescriptor, caps mxf.Caps) uint32 {
	return 0x15020000
}

func (w *rawPictureWriter) UpdateDescriptor(desc mxf.EssenceDescriptor, caps mxf.Caps, buf *mxf.EssenceBuffer) {
}

func (w *rawPictureWriter) Write(buf *mxf.EssenceBuffer, flush bool) (mxf.WriteResult, error) {
	if buf == nil {
		return mxf.WriteResult{}, nil
	}
	return mxf.WriteResult{Complete: true, EditUnit: buf.Data}, nil
}

func (w *rawPictureWriter) DataDefinitionUL() mxf.UL { return mxf.ULDataDefinitionPicture }

// rawSoundWriter is a generic uncompressed-PCM writer, same shape as
// rawPictureWriter but for sound essence.
type rawSoundWriter struct {
	descriptor *mxf.GenericSoundDescriptor
	editRate   mxf.Rational
}

func newRawSoundWriter() mxf.EssenceElementWriter { return &rawSoundWriter{} }

func (w *rawSoundWriter) GetDescriptor(caps mxf.Caps) (mxf.EssenceDescriptor, error) {
	w.descriptor = mxf.NewGenericSoundDescriptor(mxf.ULEssenceContainerPCMFrameWrapped)
	w.descriptor.AudioSamplingRate = mxf.Rational{Numerator: int64(capsIntOr(caps, "sample_rate", 48000)), Denominator: 1}
	w.descriptor.Channels = capsIntOr(caps, "channels", 2)
	w.descriptor.QuantizationBits = capsIntOr(caps, "bits", 16)
	w.editRate = capsRateOr(caps, 30000, 1001)
	w.descriptor.SampleRate = w.editRate
	return w.descriptor, nil
}

func (w *rawSoundWriter) GetEditRate(desc mxf.EssenceDescriptor, caps mxf.Caps, first *mxf.EssenceBuffer) (mxf.Rational, error) {
	return w.editRate, nil
}

func (w *rawSoundWriter) GetTrackNumberTemplate(desc mxf.EssenceDescriptor, caps mxf.Caps) uint32 {
	return 0x16020000
}

func (w *rawSoundWriter) UpdateDescriptor(desc mxf.EssenceDescriptor, caps mxf.Caps, buf *mxf.EssenceBuffer) {
}

func (w *rawSoundWriter) Write(buf *mxf.EssenceBuffer, flush bool) (mxf.WriteResult, error) {
	if buf == nil {
		return mxf.WriteResult{}, nil
	}
	return mxf.WriteResult{Complete: true, EditUnit: buf.Data}, nil
}

func (w *rawSoundWriter) DataDefinitionUL() mxf.UL { return mxf.ULDataDefinitionSound }

func capsIntOr(caps mxf.Caps, key string, fallback int) int {
	if v, ok := caps[key].(int); ok {
		return v
	}
	return fallback
}

func capsRateOr(caps mxf.Caps, num, den int64) mxf.Rational {
	if v, ok := caps["edit_rate"].(mxf.Rational); ok {
		return v
	}
	return mxf.Rational{Numerator: num, Denominator: den}
}

func init() {
	mxf.Register("raw/picture", newRawPictureWriter)
	mxf.Register("raw/sound", newRawSoundWriter)
}

var (
	outPath   string
	tracePath string
)

var rootCmd = &cobra.Command{
	Use:           "mxfmux name:template:file [name:template:file ...]",
	Short:         "Mux raw essence files into a single MXF file.",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&outPath, "out", "out.mxf", "output MXF file path")
	flags.StringVar(&tracePath, "trace", "", "write a KLV trace log to this path")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print mxfmux version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}

type padSpec struct {
	name, template, file string
}

func parsePadSpec(arg string) (padSpec, error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) != 3 {
		return padSpec{}, fmt.Errorf("pad spec %q must be name:template:file", arg)
	}
	return padSpec{name: parts[0], template: parts[1], file: parts[2]}, nil
}

func run(cmd *cobra.Command, args []string) error {
	specs := make([]padSpec, 0, len(args))
	for _, arg := range args {
		spec, err := parsePadSpec(arg)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	muxer := mxf.NewMuxer(out, slog.Default())
	if tracePath != "" {
		muxer.EnableKLVTrace(tracePath, 50, 3)
	}

	pads := make([]*mxf.Pad, len(specs))
	data := make([][]byte, len(specs))
	for i, spec := range specs {
		raw, err := os.ReadFile(spec.file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", spec.file, err)
		}
		pad, err := muxer.AddPad(spec.name, spec.template, mxf.Caps{})
		if err != nil {
			return fmt.Errorf("adding pad %q: %w", spec.name, err)
		}
		pads[i] = pad
		data[i] = raw
	}

	g, _ := errgroup.WithContext(context.Background())
	for i := range pads {
		pad, buf := pads[i], data[i]
		g.Go(func() error {
			return muxer.Push(pad, &mxf.EssenceBuffer{Data: buf, IsKeyframe: true})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pushing essence: %w", err)
	}
	if err := muxer.Err(); err != nil {
		return err
	}

	if err := muxer.Eos(); err != nil {
		return fmt.Errorf("finalizing: %w", err)
	}
	slog.Info("mxfmux wrote file", "path", outPath, "pads", len(pads))
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
