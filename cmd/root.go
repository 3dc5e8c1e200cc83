package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pdfdusk/converter"
	"pdfdusk/converter/logging"
	"pdfdusk/converter/tuning"
)

var (
	outputFile string
	outputDir  string
	mode       string
	dpi        int
	pages      string
	configFile string
	jobs       int
	merge      bool
	mergeInto  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pdfdusk <input.pdf> [more.pdf ...]",
	Short: "Convert PDFs to a dark theme",
	Long: `A CLI tool that converts PDF documents to a dark theme.

Conversion modes:
  - auto:   analyzes each page and picks the best strategy (default)
  - vector: rewrites color operators directly, preserves text and vectors
  - raster: renders pages to images and inverts them, works with any PDF`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, input := range args {
			if _, err := os.Stat(input); os.IsNotExist(err) {
				return fmt.Errorf("input file does not exist: %s", input)
			}
		}

		if verbose {
			logging.SetLevel(hclog.Debug)
		}

		var tun *tuning.Tuning
		if configFile != "" {
			loaded, err := tuning.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			tun = &loaded
		}

		if mode == "" {
			if isatty.IsTerminal(os.Stdin.Fd()) {
				mode = selectModeInteractively()
			} else {
				mode = converter.ModeAuto
			}
		}
		switch mode {
		case converter.ModeAuto, converter.ModeVector, converter.ModeRaster:
		default:
			return fmt.Errorf("invalid mode: %s (must be 'auto', 'vector' or 'raster')", mode)
		}

		if len(args) == 1 && outputDir == "" && !merge && mergeInto == "" {
			return convertOne(cmd.Context(), args[0], tun)
		}
		return convertBatch(cmd.Context(), args, tun)
	},
}

func convertOne(ctx context.Context, input string, tun *tuning.Tuning) error {
	output := outputFile
	if output == "" {
		output = filepath.Join(filepath.Dir(input), converter.OutputName(input))
	}

	fmt.Printf("Converting %s to dark theme using %s mode...\n", input, mode)
	err := converter.Convert(ctx, converter.Options{
		InputFile:  input,
		OutputFile: output,
		Mode:       mode,
		DPI:        dpi,
		Pages:      pages,
		Tuning:     tun,
		Progress:   printProgress,
	})
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	color.Green("Successfully created: %s", output)
	return nil
}

func convertBatch(ctx context.Context, inputs []string, tun *tuning.Tuning) error {
	dir := outputDir
	if dir == "" {
		dir = "."
	}
	if merge && mergeInto == "" {
		mergeInto = filepath.Join(dir, "merged_dark_document.pdf")
	}

	// Page-level progress from parallel workers would interleave, so it is
	// only wired up for sequential batches.
	var progress converter.ProgressFunc
	if jobs <= 1 {
		progress = printProgress
	}

	fmt.Printf("Converting %d documents using %s mode...\n", len(inputs), mode)
	results, err := converter.ConvertAll(ctx, converter.BatchOptions{
		InputFiles: inputs,
		OutputDir:  dir,
		Mode:       mode,
		DPI:        dpi,
		Pages:      pages,
		Tuning:     tun,
		Jobs:       jobs,
		MergeInto:  mergeInto,
		Progress:   progress,
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			color.Red("failed: %s: %s", r.Input, r.Err)
			continue
		}
		color.Green("created: %s", r.Output)
	}
	if err != nil {
		return err
	}
	if mergeInto != "" {
		color.Green("Merged %d documents into: %s", len(results)-failed, mergeInto)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(results))
	}
	return nil
}

func printProgress(current, total int, message string) {
	fmt.Printf("  %s\n", message)
}

func selectModeInteractively() string {
	fmt.Println("\nSelect conversion mode:")
	fmt.Println("  [1] auto    - Analyzes each page and picks the best strategy")
	fmt.Println("  [2] vector  - Rewrites color operators directly")
	fmt.Println("                + Preserves text and vectors, small file size")
	fmt.Println("  [3] raster  - Renders pages to images, then inverts")
	fmt.Println("                + Works with any PDF")
	fmt.Println("                - Larger file size, no text selection")
	fmt.Print("\nEnter choice (1-3): ")

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	switch input {
	case "1", "auto":
		return converter.ModeAuto
	case "2", "vector":
		return converter.ModeVector
	case "3", "raster":
		return converter.ModeRaster
	default:
		fmt.Println("Invalid choice, defaulting to 'auto' mode")
		return converter.ModeAuto
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output PDF file for a single input (default: <input>_dark.pdf)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for batch conversion (default: current directory)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "", "Conversion mode: 'auto', 'vector' or 'raster'")
	rootCmd.Flags().IntVar(&dpi, "dpi", 0, "Render DPI for raster pages (default 200)")
	rootCmd.Flags().StringVarP(&pages, "pages", "p", "", "Pages to convert, e.g. '1-3,7' (default: all)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML file overriding tuning constants")
	rootCmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "Documents converted in parallel")
	rootCmd.Flags().BoolVar(&merge, "merge", false, "Merge converted documents into merged_dark_document.pdf")
	rootCmd.Flags().StringVar(&mergeInto, "merge-into", "", "Merge converted documents into this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// SetVersionInfo wires build-time version metadata into the CLI.
func SetVersionInfo(version, buildTime, gitCommit string) {
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", version, buildTime, gitCommit)
}

// Execute runs the CLI. An interrupt cancels the active conversion; partial
// output files are never left behind.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
