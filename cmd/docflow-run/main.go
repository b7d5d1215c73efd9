// Command docflow-run reformats or rewrites markdown files from the command
// line, using the same configuration as the MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docflow-mcp/internal/complexity"
	"github.com/dshills/docflow-mcp/internal/config"
	"github.com/dshills/docflow-mcp/internal/generator"
	"github.com/dshills/docflow-mcp/internal/log"
	"github.com/dshills/docflow-mcp/internal/processor"
	"github.com/dshills/docflow-mcp/pkg/types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docflow-run",
		Short: "Reformat or rewrite markdown files",
		Long: "Process markdown files through the docflow pipeline. Without credentials the " +
			"offline echo provider is used, which returns each document unchanged.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log.SetOutput(os.Stderr)
			level, _ := cmd.Flags().GetString("log-level")
			if level != "" {
				log.SetLevel(level)
			}
			return nil
		},
	}

	cmd.PersistentFlags().String("provider", "", "Generation provider: gemini, openai or echo")
	cmd.PersistentFlags().String("model", "", "Model name")
	cmd.PersistentFlags().IntP("jobs", "j", 2, "Number of files processed concurrently")
	cmd.PersistentFlags().StringP("out-dir", "o", "", "Write results to this directory instead of stdout")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(reformatCmd(), rewriteCmd())
	return cmd
}

func reformatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reformat FILE...",
		Short: "Clean up the formatting of markdown files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, func(ctx context.Context, p *processor.Processor, content string, progress types.ProgressFunc) result {
				r := p.Reformat(ctx, content, progress)
				return result{r.Success, r.Content, r.Error, r.ChunksProcessed, r.TotalChunks}
			})
		},
	}
}

func rewriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite FILE...",
		Short: "Rewrite markdown files according to an instruction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instruction, _ := cmd.Flags().GetString("instruction")
			if instruction == "" {
				return types.ErrEmptyInstruction
			}
			return run(cmd, args, func(ctx context.Context, p *processor.Processor, content string, progress types.ProgressFunc) result {
				r := p.Rewrite(ctx, content, instruction, nil, progress)
				return result{r.Success, r.Content, r.Error, r.ChunksProcessed, r.TotalChunks}
			})
		},
	}
	cmd.Flags().StringP("instruction", "i", "", "How to rewrite the content")
	_ = cmd.MarkFlagRequired("instruction")
	return cmd
}

type result struct {
	success   bool
	content   string
	err       string
	processed int
	total     int
}

type processFunc func(ctx context.Context, p *processor.Processor, content string, progress types.ProgressFunc) result

func run(cmd *cobra.Command, files []string, fn processFunc) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level == "" {
		log.SetLevel(cfg.Log.Level)
	}

	gc := cfg.Generator.ToGenerator()
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		gc.Provider = provider
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		gc.Model = model
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	var dsts []string
	if outDir != "" {
		if dsts, err = outputPaths(outDir, files); err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// One session is shared by every file
	session, err := generator.NewSession(ctx, gc)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	counter, err := complexity.NewCounter(cfg.Processing.TokenCounter)
	if err != nil {
		return err
	}
	p, err := processor.New(session, cfg.Processing.ToProcessor(), processor.WithTokenCounter(counter))
	if err != nil {
		return err
	}

	jobs, _ := cmd.Flags().GetInt("jobs")

	log.Infof("processing %d file(s) with %s/%s", len(files), session.Provider(), session.Model())

	results := make([]result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	for i, file := range files {
		g.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			progress := func(current, total int) {
				log.Infof("%s: chunk %d/%d", file, current, total)
			}
			results[i] = fn(processor.WithRequestID(gctx, file), p, string(data), progress)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, file := range files {
		r := results[i]
		if !r.success {
			failed++
			log.Errorf("%s: failed after %d/%d chunks: %s", file, r.processed, r.total, r.err)
			continue
		}
		if outDir == "" {
			if len(files) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "<!-- %s -->\n", file)
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.content)
			continue
		}
		dst := dsts[i]
		if err := os.WriteFile(dst, []byte(r.content+"\n"), 0644); err != nil {
			return err
		}
		log.Infof("%s -> %s (%d chunk(s))", file, dst, r.total)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(files))
	}
	return nil
}

// outputPaths maps each input file to its destination in outDir. Inputs
// that share a base name would overwrite each other and are rejected.
func outputPaths(outDir string, files []string) ([]string, error) {
	dsts := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, file := range files {
		base := filepath.Base(file)
		if prev, ok := seen[base]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, file, filepath.Join(outDir, base))
		}
		seen[base] = file
		dsts[i] = filepath.Join(outDir, base)
	}
	return dsts, nil
}
