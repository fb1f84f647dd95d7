package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"synthcap/adapters/excel"
	"synthcap/adapters/naming"
	"synthcap/app"
	"synthcap/domain/core"
	"synthcap/domain/panel"
	"synthcap/domain/pool"
	"synthcap/internal/config"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "synthcap",
		Short: "Synthetic control estimation for the cost-cap study",
	}

	rootCmd.AddCommand(
		newStudyCmd(),
		newSweepCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStudyCmd() *cobra.Command {
	var configPath string
	var variantName string

	cmd := &cobra.Command{
		Use:   "study",
		Short: "Run one estimation pass and print the structured result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			mapping := naming.NewConstructorMapping()
			records, err := loadRecords(cmd.Context(), cfg, mapping, logger)
			if err != nil {
				return err
			}

			rules, err := pickVariant(cfg, mapping, variantName)
			if err != nil {
				return err
			}

			pre, err := cfg.PreWindow()
			if err != nil {
				return err
			}
			post, err := cfg.PostWindow()
			if err != nil {
				return err
			}

			logger.Info("running study",
				zap.String("treated", cfg.Treated),
				zap.String("variant", rules.Name),
				zap.Int("candidates", len(cfg.Candidates)),
			)

			service := app.NewStudyService()
			result, err := service.Run(cmd.Context(), app.StudyRequest{
				Records:        records,
				Treated:        core.UnitKey(cfg.Treated),
				Candidates:     cfg.CandidateKeys(),
				Treatment:      core.Period(cfg.Treatment),
				Pre:            pre,
				Post:           post,
				Rules:          rules,
				MappingVersion: mapping.Version(),
			})
			if err != nil {
				return err
			}

			logger.Info("study complete",
				zap.Float64("mean_effect", result.Effect.MeanEffect),
				zap.Float64("pre_rmspe", result.Fit.PreRMSPE),
				zap.Float64("rank_p", result.RankPValue),
			)
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML study config (default: SYNTHCAP_CONFIG)")
	cmd.Flags().StringVar(&variantName, "variant", "", "pool variant to run (default: first configured)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the sensitivity grid and print per-cell results as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			mapping := naming.NewConstructorMapping()
			records, err := loadRecords(cmd.Context(), cfg, mapping, logger)
			if err != nil {
				return err
			}

			pre, err := cfg.PreWindow()
			if err != nil {
				return err
			}
			post, err := cfg.PostWindow()
			if err != nil {
				return err
			}

			variants := cfg.RuleSets(mapping.DefunctBefore())
			logger.Info("running sensitivity sweep",
				zap.Int("variants", len(variants)),
				zap.Ints("pre_lengths", cfg.PreLengths),
				zap.Int("workers", cfg.Workers),
			)

			runner := app.NewSensitivityService(app.NewStudyService())
			result, err := runner.Run(cmd.Context(), app.SweepRequest{
				Records:        records,
				Treated:        core.UnitKey(cfg.Treated),
				Candidates:     cfg.CandidateKeys(),
				Treatment:      core.Period(cfg.Treatment),
				BasePre:        pre,
				Post:           post,
				Variants:       variants,
				PreLengths:     cfg.PreLengths,
				Workers:        cfg.Workers,
				MappingVersion: mapping.Version(),
			})
			if err != nil {
				return err
			}

			logger.Info("sweep complete",
				zap.Int("succeeded", result.Succeeded),
				zap.Int("failed", result.Failed),
			)
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML study config (default: SYNTHCAP_CONFIG)")
	return cmd
}

func setup(configPath string) (*config.Config, *zap.Logger, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnvPath()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zapCfg.Level = parsed
	}
	// Keep stdout clean for the JSON result.
	zapCfg.OutputPaths = []string{"stderr"}
	return zapCfg.Build()
}

func pickVariant(cfg *config.Config, mapping *naming.Mapping, name string) (pool.RuleSet, error) {
	variants := cfg.RuleSets(mapping.DefunctBefore())
	if name == "" {
		return variants[0], nil
	}
	for _, v := range variants {
		if v.Name == name {
			return v, nil
		}
	}
	return pool.RuleSet{}, fmt.Errorf("unknown pool variant %q", name)
}

func loadRecords(ctx context.Context, cfg *config.Config, mapping *naming.Mapping, logger *zap.Logger) ([]panel.Record, error) {
	if cfg.StandingsFile == "" {
		return nil, fmt.Errorf("standings_file is required (config or SYNTHCAP_STANDINGS_FILE)")
	}
	reader := excel.NewStandingsReader(cfg.StandingsFile, mapping)
	records, unknown, err := reader.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load standings: %w", err)
	}
	if len(unknown) > 0 {
		logger.Warn("unknown team names fell back to upper-case keys",
			zap.Strings("names", unknown),
			zap.String("mapping_version", mapping.Version()),
		)
	}
	logger.Debug("standings loaded", zap.Int("records", len(records)))
	return records, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
