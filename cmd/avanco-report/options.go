package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"avancofisico/internal/config"
	"avancofisico/internal/dataset"
	"avancofisico/internal/infrastructure"
	appmw "avancofisico/internal/middleware"
	"avancofisico/internal/services"
	api "avancofisico/pkg/contracts/api/v1"
	"avancofisico/pkg/contracts/domain"
)

// options holds the flags shared by every subcommand
type options struct {
	file     string
	sheet    string
	encoding string
	snapshot string
	logLevel string
	filters  api.FilterRequest

	logger *slog.Logger
}

func (o *options) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.file, "file", "f", config.DefaultDataFile, "progress spreadsheet (.xlsx or .csv)")
	flags.StringVar(&o.sheet, "sheet", config.DefaultSheet, "preferred workbook sheet")
	flags.StringVar(&o.encoding, "encoding", "auto", "csv encoding (auto, utf-8, latin-1)")
	flags.StringVar(&o.snapshot, "snapshot", "", "read a snapshot file instead of the spreadsheet")
	flags.StringVar(&o.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	flags.StringArrayVar(&o.filters.Clientes, "cliente", nil, "keep rows of this client (repeatable)")
	flags.StringArrayVar(&o.filters.OS, "os", nil, "keep rows of this OS (repeatable)")
	flags.StringArrayVar(&o.filters.Tags, "tag", nil, "keep rows with this tag (repeatable)")
	flags.StringArrayVar(&o.filters.Situacoes, "situacao", nil, "keep rows with this drawing status (repeatable)")
	flags.StringVar(&o.filters.Receb.From, "receb-start", "", "received on or after YYYY-MM-DD")
	flags.StringVar(&o.filters.Receb.To, "receb-end", "", "received on or before YYYY-MM-DD")
	flags.StringVar(&o.filters.Exped.From, "exped-start", "", "shipped on or after YYYY-MM-DD")
	flags.StringVar(&o.filters.Exped.To, "exped-end", "", "shipped on or before YYYY-MM-DD")
	flags.StringVar(&o.filters.DesenhoPai, "desenho", "", "parent drawing contains this text")
}

// init sets up logging on stderr so stdout carries only the report
func (o *options) init(_ *cobra.Command) error {
	handler := infrastructure.NewHandler(os.Stderr, config.LoggingConfig{
		Level:  o.logLevel,
		Format: "text",
	})
	o.logger = slog.New(handler)
	slog.SetDefault(o.logger)
	return nil
}

// spec validates the filter flags
func (o *options) spec() (domain.FilterSpec, error) {
	if err := appmw.NewValidator().Struct(o.filters); err != nil {
		return domain.FilterSpec{}, fmt.Errorf("%w: %w", services.ErrInvalidFilter, err)
	}
	return o.filters.ToSpec(), nil
}

// load opens the dataset named by the flags. A spreadsheet that cannot be
// read is an error here, unlike the server which keeps running degraded.
func (o *options) load(ctx context.Context) (*dataset.Handle, error) {
	if o.snapshot != "" {
		blob, err := os.ReadFile(o.snapshot)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		return dataset.FromSnapshot(blob, o.snapshot)
	}

	paths, err := config.GetPaths()
	path := o.file
	if err == nil {
		path = paths.Resolve(o.file)
	}

	h := dataset.Open(ctx, dataset.Options{Path: path, Sheet: o.sheet, Encoding: o.encoding}, o.logger)
	if !h.Loaded() {
		return nil, errors.New(h.Status().Message)
	}
	return h, nil
}

// service loads the dataset and wraps it in a dashboard service
func (o *options) service(ctx context.Context) (*services.DashboardService, error) {
	h, err := o.load(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewDashboardService(h, services.DashboardOptions{}, o.logger), nil
}
