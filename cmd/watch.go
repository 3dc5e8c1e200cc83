package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"pdfdusk/converter"
	"pdfdusk/converter/logging"
)

// settleDelay is how long a watched file must stay quiet before conversion
// starts; writes arrive in bursts while a file is being copied in.
const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Convert PDFs as they appear in a directory",
	Long: `Watches a directory and converts every new or updated PDF to a dark
theme. Converted files are written next to the originals as <name>_dark.pdf;
files already carrying the _dark suffix are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("not a directory: %s", dir)
		}
		switch mode {
		case "", converter.ModeAuto, converter.ModeVector, converter.ModeRaster:
		default:
			return fmt.Errorf("invalid mode: %s (must be 'auto', 'vector' or 'raster')", mode)
		}
		return watchDirectory(cmd.Context(), dir)
	},
}

func watchDirectory(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	fmt.Printf("Watching %s for PDFs. Press Ctrl+C to stop.\n", dir)

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			if !isWatchTarget(path) {
				continue
			}

			mu.Lock()
			if timer, found := pending[path]; found {
				timer.Stop()
			}
			pending[path] = time.AfterFunc(settleDelay, func() {
				mu.Lock()
				delete(pending, path)
				mu.Unlock()
				convertWatched(ctx, path)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Logger.Warn("watch error", "error", err)
		}
	}
}

// isWatchTarget filters watcher events down to convertible PDFs.
func isWatchTarget(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return false
	}
	return !strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), "_dark")
}

func convertWatched(ctx context.Context, input string) {
	if ctx.Err() != nil {
		return
	}
	output := filepath.Join(filepath.Dir(input), converter.OutputName(input))

	fmt.Printf("Converting %s...\n", input)
	err := converter.Convert(ctx, converter.Options{
		InputFile:  input,
		OutputFile: output,
		Mode:       mode,
		DPI:        dpi,
	})
	if err != nil {
		color.Red("failed: %s: %s", input, err)
		return
	}
	color.Green("created: %s", output)
}

func init() {
	watchCmd.Flags().StringVarP(&mode, "mode", "m", "", "Conversion mode: 'auto', 'vector' or 'raster' (default: auto)")
	watchCmd.Flags().IntVar(&dpi, "dpi", 0, "Render DPI for raster pages (default 200)")
	rootCmd.AddCommand(watchCmd)
}
