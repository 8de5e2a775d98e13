package main

import (
	"fmt"
	"strconv"

	"swissknife/internal/batch"
	"swissknife/internal/runner"
	"swissknife/internal/tools"

	"github.com/spf13/cobra"
)

type toolInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			var infos []toolInfo
			for _, tool := range a.registry.All() {
				infos = append(infos, toolInfo{ID: tool.ID(), Name: tool.Name(), Description: tool.Description()})
			}
			if a.cfg.JSON {
				return a.printJSON(infos)
			}
			for _, info := range infos {
				fmt.Fprintf(a.stdout, "%-14s %-14s %s\n", info.ID, info.Name, info.Description)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		output string
		params map[string]string
	)
	cmd := &cobra.Command{
		Use:   "run <tool-id> [inputs...]",
		Short: "Run any registered tool by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()
			return a.execute(runner.Request{ToolID: args[0], Inputs: args[1:], Output: output, Params: params})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Tool parameter as key=value (repeatable)")
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file|url>",
		Short: "Compute the SHA-256 digest of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()
			return a.execute(runner.Request{ToolID: tools.HashToolID, Inputs: args})
		},
	}
}

func newMergeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "merge -o <output.pdf> <input.pdf>...",
		Short: "Merge PDF files in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()
			return a.execute(runner.Request{ToolID: tools.MergeToolID, Inputs: args, Output: output})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Merged PDF path")
	return cmd
}

func newSplitCmd() *cobra.Command {
	var (
		output       string
		mode         string
		pagesPerFile int
		ranges       string
	)
	cmd := &cobra.Command{
		Use:   "split <input.pdf> -o <dir>",
		Short: "Split a PDF into fixed-size parts or page ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()
			params := map[string]string{
				"mode":         mode,
				"pagesPerFile": strconv.Itoa(pagesPerFile),
			}
			if ranges != "" {
				params["range"] = ranges
			}
			return a.execute(runner.Request{ToolID: tools.SplitToolID, Inputs: args, Output: output, Params: params})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory")
	cmd.Flags().StringVar(&mode, "mode", tools.ModePages, "Split mode: pages or range")
	cmd.Flags().IntVar(&pagesPerFile, "pages-per-file", 1, "Pages per part in pages mode")
	cmd.Flags().StringVar(&ranges, "range", "", "Page ranges in range mode, e.g. 1-3,5")
	return cmd
}

func newCompressCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "compress <input.pdf> -o <output.pdf>",
		Short: "Rewrite a PDF with stream compression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()
			params := map[string]string{"compressionLevel": a.cfg.Level}
			return a.execute(runner.Request{ToolID: tools.CompressToolID, Inputs: args, Output: output, Params: params})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Compressed PDF path")
	cmd.Flags().String("level", "medium", "Compression level: low, medium or high")
	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <jobs.yaml>",
		Short: "Run the jobs of a YAML batch file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := batch.Load(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			concurrency := a.cfg.Concurrency
			if file.Concurrency > 0 && !cmd.Flags().Changed("concurrency") {
				concurrency = file.Concurrency
			}
			reqs := file.Requests()

			ctx, cancel := a.context()
			defer cancel()
			results, runErr := a.runner().RunBatch(ctx, reqs, concurrency)
			for _, result := range results {
				a.persist(result)
			}
			if a.cfg.JSON {
				if err := a.printJSON(results); err != nil {
					return err
				}
			}
			if runErr != nil {
				return &exitError{code: exitCancelled, err: runErr, silent: true}
			}
			for _, result := range results {
				if result.Status != runner.StatusSuccess {
					return &exitError{code: exitFailure, silent: true}
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("concurrency", 4, "Maximum jobs running at once")
	return cmd
}
