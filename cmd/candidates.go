package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/logger"
	"github.com/spigell/talent-screener/internal/store"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List processed candidates of a task",
	Run: func(cmd *cobra.Command, _ []string) {
		listCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().String("task-id", "", "task id to list candidates of")
	candidatesCmd.Flags().StringP("report", "r", "", "write an xlsx report instead of printing json")
	candidatesCmd.MarkFlagRequired("task-id")
}

func listCandidates(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	db, err := newDB(config.Database, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}

	taskID, _ := cmd.Flags().GetString("task-id")
	items, err := store.NewCandidateStore(db, logger).ListByTask(ctx, taskID)
	if err != nil {
		logger.Fatal("listing candidates", zap.String("task_id", taskID), zap.Error(err))
	}

	logger.Info("found candidates", zap.String("task_id", taskID), zap.Int("count", len(items)))

	batch := candidate.NewBatch(items...)
	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := exportReport(path, taskID, batch, logger); err != nil {
			logger.Fatal("exporting report", zap.Error(err))
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		logger.Fatal("printing candidates", zap.Error(err))
	}
}
