package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/export"
	"github.com/spigell/talent-screener/internal/jobs"
	"github.com/spigell/talent-screener/internal/logger"
	"github.com/spigell/talent-screener/internal/metrics"
	"github.com/spigell/talent-screener/internal/pipeline"
	"github.com/spigell/talent-screener/internal/store"
)

const (
	PromptYes              = "Yes"
	PromptNo               = "No"
	PromptShowProfiles     = "Show job profiles"
	PromptReportByRoles    = "Report by roles"
	PromptCandidatesToFile = "Dump candidates to file"
	PromptExportReport     = "Export report to xlsx"
	PromptExit             = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptNo, PromptShowProfiles},
}

var resultPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportByRoles, PromptCandidatesToFile, PromptExportReport, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run [documents or directories...]",
	Short: "Run the candidate pipeline over resume documents",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before and after the run")
	runCmd.Flags().String("task-id", "", "task id of the run. Generated when unset.")
	runCmd.Flags().Bool("dry-run", false, "log HR notifications instead of sending them")
	runCmd.Flags().StringP("report", "r", "", "write an xlsx report of the run to this file")
	runCmd.Flags().StringP("jobs-file", "f", "", "file with job descriptions (csv, xlsx or yaml)")

	viper.BindPFlag("jobs-file", runCmd.Flags().Lookup("jobs-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talent-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.JobsFile == "" {
		logger.Fatal("job descriptions file is required", zap.String("hint", "set jobs-file in the config or pass --jobs-file"))
	}

	profiles, err := jobs.LoadFile(config.JobsFile)
	if err != nil {
		logger.Fatal("loading job profiles", zap.Error(err))
	}
	logger.Info("loaded job profiles", zap.Int("count", profiles.Len()), zap.Strings("roles", profiles.Roles()))

	documents, err := readDocuments(args)
	if err != nil {
		logger.Fatal("reading documents", zap.Error(err))
	}
	if documents.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no documents found"))
		return
	}
	logger.Info("found documents", zap.Int("count", documents.Len()))

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"
	if !autoApprove {
		if err := confirm(logger, profiles); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	deps, closer := prepareDeps(ctx, config, dryRun, logger)
	defer closer()

	p := pipeline.New(pipeline.Stages(deps), logger,
		pipeline.WithStageTimeout(config.Pipeline.StageTimeout),
		pipeline.WithMetrics(deps.Metrics),
	)

	taskID, _ := cmd.Flags().GetString("task-id")
	runInfo := &pipeline.Run{TaskID: taskID, Profiles: profiles}

	result, err := p.Run(ctx, runInfo, documents)
	writeMetrics(deps.Metrics, config.MetricsFile, logger)
	if err != nil && result == nil {
		logger.Fatal("pipeline failed", zap.String("task_id", runInfo.TaskID), zap.Error(err))
	}
	if err != nil {
		logger.Warn("pipeline interrupted", zap.String("task_id", runInfo.TaskID), zap.Error(err))
	}

	logger.Info("pipeline finished",
		zap.String("task_id", runInfo.TaskID),
		zap.String("state", result.State.String()),
		zap.String("aborted_at", result.AbortedAt),
		zap.Int("candidates", result.Batch.Len()),
	)

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := exportReport(path, runInfo.TaskID, result.Batch, logger); err != nil {
			logger.Fatal("exporting report", zap.Error(err))
		}
	}

	if autoApprove || result.Batch.Len() == 0 {
		return
	}

	for {
		_, action, err := resultPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, runInfo.TaskID, result.Batch); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func confirm(logger *zap.Logger, profiles *jobs.Profiles) error {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptYes:
			return nil
		case PromptNo:
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return errExit
		case PromptShowProfiles:
			pretty, _ := json.MarshalIndent(profiles.Items, "", "  ")
			logger.Info(string(pretty), zap.Int("profiles count", profiles.Len()))
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func handleAction(action string, logger *zap.Logger, taskID string, batch *candidate.Batch) error {
	switch action {
	case PromptExit:
		return errExit
	case PromptReportByRoles:
		pretty, _ := json.MarshalIndent(batch.ReportByRole(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", batch.Len()))
		return nil
	case PromptCandidatesToFile:
		filename, err := batch.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExportReport:
		return exportReport(taskID, taskID, batch, logger)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func prepareDeps(ctx context.Context, config *Config, dryRun bool, logger *zap.Logger) (*pipeline.Deps, func()) {
	db, err := newDB(config.Database, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}

	content, err := newBlob(ctx, config.Storage)
	if err != nil {
		logger.Fatal("preparing content storage", zap.Error(err))
	}

	extractor, closeExtractor, err := newExtractor(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the extractor", zap.Error(err), zap.String("provider", config.AI.Provider))
	}

	notifier, err := newNotifier(ctx, config.Notify, dryRun, logger)
	if err != nil {
		logger.Fatal("building the notifier", zap.Error(err), zap.String("channel", config.Notify.Channel))
	}

	m, err := metrics.New()
	if err != nil {
		logger.Fatal("registering metrics", zap.Error(err))
	}

	deps := &pipeline.Deps{
		Repo:        store.NewCandidateStore(db, logger),
		Blob:        content,
		Extractor:   extractor,
		Notifier:    notifier,
		Scoring:     newScoring(config.Scoring),
		Validate:    validator.New(),
		Metrics:     m,
		Logger:      logger,
		Concurrency: config.Pipeline.Concurrency,
		Threshold:   config.Pipeline.AcceptanceThreshold,
	}

	return deps, func() {
		if err := closeExtractor(); err != nil {
			logger.Warn("closing the extractor", zap.Error(err))
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func exportReport(path, taskID string, batch *candidate.Batch, logger *zap.Logger) error {
	filename, err := export.Excel(path, export.Report{TaskID: taskID, Items: batch.Items})
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	logger.Info("report exported", zap.String("filename", filename))
	return nil
}

func writeMetrics(m *metrics.Metrics, path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn("writing metrics textfile", zap.Error(err))
		return
	}
	logger.Debug("metrics written", zap.String("filename", path))
}
