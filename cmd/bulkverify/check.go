package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var (
		file   string
		dedupe bool
		stream bool
	)
	cmd := &cobra.Command{
		Use:   "check [address...]",
		Short: "Validate addresses from arguments, a file or stdin",
		Long: "Validate addresses given as arguments, or one per line from --file (\"-\" for stdin).\n" +
			"Prints the batch result as JSON, or one JSON event per line with --stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd)

			addrs := args
			if file != "" {
				in, err := openInput(cmd, file)
				if err != nil {
					return err
				}
				defer func() { _ = in.Close() }()
				fromFile, err := readAddresses(in)
				if err != nil {
					return err
				}
				addrs = append(addrs, fromFile...)
			}

			ctx := cmd.Context()
			v, cleanup, err := newValidator(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !stream {
				res, err := v.ValidateBatch(ctx, addrs, dedupe)
				if err != nil {
					return err
				}
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			events, err := v.ValidateStream(ctx, addrs, dedupe)
			if err != nil {
				return err
			}
			for ev := range events {
				if err := enc.Encode(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `read addresses from a file, one per line ("-" for stdin)`)
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "drop duplicate addresses before validating")
	cmd.Flags().BoolVar(&stream, "stream", false, "print events as JSON lines while validating")
	return cmd
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// readAddresses returns the non-blank lines of r. Lines starting with # are skipped.
func readAddresses(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return out, nil
}
