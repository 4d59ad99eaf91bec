// Package main is the entry point for the ableton2blackbox CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/padtools/ableton2blackbox/pkg/api"
	"github.com/padtools/ableton2blackbox/pkg/convert"
	"github.com/padtools/ableton2blackbox/pkg/engine"
	"github.com/padtools/ableton2blackbox/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputDir   string
	manualTempo float64
	noSamples   bool
	exportMIDI  bool
	tolerance   float64
	fitRatio    float64
	mixedCutoff float64
	verbose     bool
	serverPort  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ableton2blackbox",
	Short: "Convert Ableton Live drum rack projects to Blackbox presets",
	Long: `ableton2blackbox converts Ableton Live projects (.als) built around a
drum rack into 1010music Blackbox preset directories.

The first track's drum rack fills the 4x4 pad grid; up to sixteen MIDI
tracks become step sequences, routed to pads, key-tracked slots, or
external MIDI channels depending on their output routing.

Examples:
  ableton2blackbox convert project.als
  ableton2blackbox convert project.als -o MyPreset --midi
  ableton2blackbox tui
  ableton2blackbox serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.als>",
	Short: "Convert an .als project to a preset directory",
	Long: `Reads the project, classifies each sequence track against straight and
triplet grids, and writes preset.xml plus the referenced samples into
the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output preset directory (default: input name + .blackbox)")
	convertCmd.Flags().Float64VarP(&manualTempo, "manual", "m", 0, "Manual tempo in BPM, overriding the project tempo")
	convertCmd.Flags().BoolVar(&noSamples, "no-samples", false, "Do not copy referenced samples")
	convertCmd.Flags().BoolVar(&exportMIDI, "midi", false, "Also export one .mid per sequence track")
	convertCmd.Flags().Float64Var(&tolerance, "tolerance", 0.05, "Grid fit tolerance in step units")
	convertCmd.Flags().Float64Var(&fitRatio, "fit-ratio", 0.95, "Required share of onsets on the grid")
	convertCmd.Flags().Float64Var(&mixedCutoff, "mixed-cutoff", 0.30, "Exclusive-fit share above which a pattern counts as mixed")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log.Sugar()
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := outputDir
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".blackbox"
	}

	log := newLogger()
	defer func() { _ = log.Sync() }()

	conv := convert.New(convert.Options{
		Analyzer: engine.AnalyzerConfig{
			Tolerance:   tolerance,
			FitRatio:    fitRatio,
			MixedCutoff: mixedCutoff,
		},
		TempoBPM:    manualTempo,
		CopySamples: !noSamples,
		ExportMIDI:  exportMIDI,
	}, log)

	fmt.Printf("Converting %s -> %s\n", input, output)
	res, err := conv.ConvertFile(input, output)
	if err != nil {
		return err
	}

	populated := 0
	for _, pad := range res.Pads {
		if !pad.Empty {
			populated++
		}
	}
	fmt.Printf("Conversion complete: %d/16 pads, %d sequence tracks, %.1f BPM\n",
		populated, len(res.Tracks), res.TempoBPM)
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w.Message)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort, newLogger())
}
