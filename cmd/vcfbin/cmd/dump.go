package cmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/CEA-LIST/sgntx/pkg/codec"
	"github.com/CEA-LIST/sgntx/pkg/store"
	"github.com/CEA-LIST/sgntx/pkg/vcf"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the records of a binary file",
	Long: `Decode a binary record file and print one tab-separated line per record:
chromosome, position, identifier, ref, alt and zygosity.

Example:
  vcfbin dump ./bin/sample.vcf.bin --mode fixed`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeName := container.Config().Mode
		if cmd.Flags().Changed("mode") {
			modeName, _ = cmd.Flags().GetString("mode")
		}
		mode, err := codec.ParseMode(modeName)
		if err != nil {
			return err
		}
		return runDump(args[0], mode, cmd.OutOrStdout())
	},
}

func runDump(path string, mode codec.Mode, out io.Writer) error {
	reader, err := store.NewBinReader(store.BinReaderConfig{FilePath: path, Mode: mode})
	if err != nil {
		return err
	}
	defer reader.Close()

	w := bufio.NewWriter(out)
	it := reader.Iterator()
	for it.Next() {
		if _, err := fmt.Fprintln(w, vcf.Format(it.Record(), mode)); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		_ = w.Flush()
		return err
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringP("mode", "m", "", "Identifier mode: fixed or variable (default from config)")
}
