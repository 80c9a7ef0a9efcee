// =============================================================================
// USDA Honey Report - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which loads the tables written by
// 'process' and serves them to the dashboard as JSON.
//
// COMMAND USAGE:
//   honeyreport serve [--listen :8050] [--output-dir DIR]
//
// DATA LOADING:
//   all_honey_data.csv and all_colony_data.csv are read from the output
//   directory. When a CSV is missing the matching sheet of honey_report.xlsx
//   is used instead.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/honey-report/internal/httpapi"
	"github.com/ginjaninja78/honey-report/internal/metrics"
	"github.com/ginjaninja78/honey-report/internal/tablereader"
	"github.com/ginjaninja78/honey-report/internal/tablewriter"
	"github.com/ginjaninja78/honey-report/internal/types"
	"github.com/ginjaninja78/honey-report/pkg/utils"
)

var listenAddr string

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the output tables over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDirFlags(mainConfig)
		if listenAddr != "" {
			mainConfig.ListenAddr = listenAddr
		}

		data, err := loadDataset(mainConfig.OutputDir)
		if err != nil {
			return err
		}
		logger.Info("loaded tables",
			zap.Int("production_records", data.Production.Len()),
			zap.Int("colony_records", data.Colony.Len()),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return httpapi.New(mainConfig.ListenAddr, data, logger, metrics.New()).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides listen_addr)")
	serveCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory holding the output tables")
}

// loadDataset reads both output tables from dir.
func loadDataset(dir string) (httpapi.Dataset, error) {
	fm := utils.NewFileManager("", "", dir)

	production, err := loadTable(fm, tablewriter.ProductionCSV, tablewriter.ProductionSheet, types.KindProduction)
	if err != nil {
		return httpapi.Dataset{}, err
	}
	colony, err := loadTable(fm, tablewriter.ColonyCSV, tablewriter.ColonySheet, types.KindColonyStressor)
	if err != nil {
		return httpapi.Dataset{}, err
	}
	return httpapi.Dataset{Production: production, Colony: colony}, nil
}

func loadTable(fm *utils.FileManager, csvName, sheet string, kind types.Kind) (*types.Table, error) {
	if path := fm.OutputPath(csvName); utils.FileExists(path) {
		return tablereader.ReadCSVFile(path, kind)
	}
	if path := fm.OutputPath(tablewriter.WorkbookXLSX); utils.FileExists(path) {
		return tablereader.ReadXLSX(path, sheet, kind)
	}
	return nil, fmt.Errorf("no %s table in %s; run 'honeyreport process' first", kind, fm.OutputDir)
}
