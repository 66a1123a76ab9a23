package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/CEA-LIST/sgntx/pkg/batch"
	"github.com/CEA-LIST/sgntx/pkg/catalog"
	"github.com/CEA-LIST/sgntx/pkg/codec"
	"github.com/CEA-LIST/sgntx/pkg/di"
	"github.com/CEA-LIST/sgntx/pkg/logger"
)

// ErrConversionFailed is returned when at least one file failed.
var ErrConversionFailed = errors.New("conversion failed")

type convertOptions struct {
	InputDir  string
	OutputDir string
	Mode      codec.Mode
	Workers   int
	Extension string
	Recursive bool
	Record    bool // store the run in the catalog
}

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert every VCF file in a directory",
	Long: `Convert every VCF file under the input directory into a binary record file
under the output directory. Each source maps to <output>/<relative path>.bin.
Files are converted concurrently; a failure in one file does not stop the
others, but makes the command exit non-zero.

Examples:
  vcfbin convert -i ./vcf -o ./bin
  vcfbin convert -i ./vcf -o ./bin --mode variable --workers 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := convertOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		return runConvert(cmd.Context(), container, opts, cmd.OutOrStdout())
	},
}

func convertOptionsFromFlags(cmd *cobra.Command) (convertOptions, error) {
	cfg := container.Config()
	flags := cmd.Flags()

	opts := convertOptions{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
		Extension: cfg.Extension,
		Recursive: cfg.Recursive,
		Record:    true,
	}
	modeName := cfg.Mode

	if flags.Changed("input") {
		opts.InputDir, _ = flags.GetString("input")
	}
	if flags.Changed("output") {
		opts.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("mode") {
		modeName, _ = flags.GetString("mode")
	}
	if flags.Changed("workers") {
		opts.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("ext") {
		opts.Extension, _ = flags.GetString("ext")
	}
	if flags.Changed("recursive") {
		opts.Recursive, _ = flags.GetBool("recursive")
	}
	if noCatalog, _ := flags.GetBool("no-catalog"); noCatalog {
		opts.Record = false
	}

	mode, err := codec.ParseMode(modeName)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode

	if opts.Workers < 0 {
		return opts, errors.Newf("--workers must be >= 0, got %d", opts.Workers)
	}
	return opts, nil
}

func runConvert(ctx context.Context, c *di.Container, opts convertOptions, out io.Writer) error {
	log := logger.FromContext(ctx)

	jobs, err := batch.Discover(opts.InputDir, opts.OutputDir, batch.DiscoverOptions{
		Extension: opts.Extension,
		Recursive: opts.Recursive,
	})
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		log.Warn("no input files found", "input_dir", opts.InputDir, "extension", opts.Extension)
		fmt.Fprintf(out, "No input files found in %s\n", opts.InputDir)
		return nil
	}

	runner := c.Runner(opts.Mode, opts.Workers)
	log.Info("starting conversion",
		"files", len(jobs),
		"mode", opts.Mode.String(),
		"workers", runner.Workers(),
	)

	started := time.Now()
	results := runner.Run(ctx, jobs)
	finished := time.Now()

	summary := batch.Summarize(results)
	fmt.Fprintf(out, "Converted %d/%d files (%d records, %d bytes) in %s\n",
		summary.Succeeded, summary.Files, summary.Records, summary.Bytes,
		finished.Sub(started).Round(time.Millisecond))
	for _, res := range batch.Failed(results) {
		fmt.Fprintf(out, "FAILED %s: %v\n", res.Job.Source, res.Err)
	}

	if opts.Record {
		recordRun(c, log, opts, started, finished, results, out)
	}

	if summary.Failed > 0 {
		return errors.Wrapf(ErrConversionFailed, "%d of %d files", summary.Failed, summary.Files)
	}
	return nil
}

// recordRun stores the run in the catalog. A catalog failure is logged and
// never fails the conversion itself.
func recordRun(c *di.Container, log logger.Logger, opts convertOptions, started, finished time.Time, results []batch.Result, out io.Writer) {
	cat, err := c.Catalog()
	if err != nil {
		log.Warn("run catalog unavailable, run not recorded", "error", err)
		return
	}

	run := catalog.NewRun(opts.Mode.String(), opts.InputDir, opts.OutputDir, opts.Workers, started, finished, results)
	id, err := cat.CreateRun(run)
	if err != nil {
		log.Warn("failed to record run", "error", err)
		return
	}
	log.Info("run recorded", "run_id", id.String())
	fmt.Fprintf(out, "Run ID: %s\n", id)
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("input", "i", "", "Input directory (default from config)")
	convertCmd.Flags().StringP("output", "o", "", "Output directory (default from config)")
	convertCmd.Flags().StringP("mode", "m", "", "Identifier mode: fixed or variable (default from config)")
	convertCmd.Flags().IntP("workers", "w", 0, "Concurrent conversions, 0 = number of CPUs")
	convertCmd.Flags().String("ext", "", "Only convert files with this extension, empty = all")
	convertCmd.Flags().BoolP("recursive", "r", false, "Walk sub-directories")
	convertCmd.Flags().Bool("no-catalog", false, "Do not record the run in the catalog")
}
