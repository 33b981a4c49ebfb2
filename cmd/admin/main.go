package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/enrichment"
	"github.com/nexxt/connect/pkg/models"
	"github.com/nexxt/connect/pkg/utils"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "connect-admin",
		Short:         "Maintenance tasks for the connect service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env", utils.EnvFile(), "Path to the .env file")

	cmd.AddCommand(seedCmd(&envFile), refreshCmd(&envFile), transcriptCmd(&envFile))
	return cmd
}

// withDeps connects the stores for a single command and closes them afterwards
func withDeps(envFile string, fn func(ctx context.Context, d *deps.Deps) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := deps.Build(ctx, utils.NewConfigFromEnv(envFile))
	if err != nil {
		return err
	}
	defer d.Close(context.WithoutCancel(ctx))

	return fn(ctx, d)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func seedCmd(envFile *string) *cobra.Command {
	var kind, file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the normalised vocabularies",
		Long: `Seed stores and embeds canonical vocabulary entries.

Without flags the built-in vocabulary is used. --file alone reads a YAML
vocabulary file; --file together with --kind reads one name per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && file == "" {
				return fmt.Errorf("--kind needs a --file with one name per line")
			}

			return withDeps(*envFile, func(ctx context.Context, d *deps.Deps) error {
				var (
					result enrichment.SeedResult
					err    error
				)
				if kind != "" {
					f, openErr := os.Open(file)
					if openErr != nil {
						return openErr
					}
					defer f.Close()
					result, err = d.Normalizer.SeedLines(ctx, models.VocabularyKind(kind), f)
				} else {
					vocabulary, loadErr := enrichment.LoadVocabulary(file)
					if loadErr != nil {
						return loadErr
					}
					result, err = d.Normalizer.Seed(ctx, vocabulary)
				}
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Vocabulary kind (skill, interest, job_role, company, location)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Vocabulary file")
	return cmd
}

func refreshCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute the similarity relationships now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(*envFile, func(ctx context.Context, d *deps.Deps) error {
				results, err := d.Refresher.RefreshNow(ctx)
				if err != nil {
					return err
				}
				return printJSON(results)
			})
		},
	}
}

func transcriptCmd(envFile *string) *cobra.Command {
	var file, user string
	var save bool

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Extract profile data from a transcript file",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read transcript: %w", err)
			}
			if save {
				if _, err := uuid.Parse(user); err != nil {
					return fmt.Errorf("--save needs a valid --user id: %w", err)
				}
			}

			return withDeps(*envFile, func(ctx context.Context, d *deps.Deps) error {
				resp, err := d.Transcripts.Process(ctx, models.TranscriptRequest{
					Transcript:  string(text),
					PersonID:    user,
					SaveToGraph: save,
				})
				if err != nil {
					return err
				}
				return printJSON(resp)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Transcript text file")
	cmd.Flags().StringVar(&user, "user", "", "User id the transcript belongs to")
	cmd.Flags().BoolVar(&save, "save", false, "Write the extracted profile to the graph")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
