package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobsalhi/sofifa-harvester/internal/config"
	"github.com/jobsalhi/sofifa-harvester/internal/extract"
	"github.com/jobsalhi/sofifa-harvester/internal/fetcher"
	"github.com/jobsalhi/sofifa-harvester/internal/logging"
	"github.com/jobsalhi/sofifa-harvester/internal/ops"
	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
	"github.com/jobsalhi/sofifa-harvester/internal/sink"
)

// harvestFlags are the per-command knobs shared by players and clubs.
type harvestFlags struct {
	discoverOnly bool
	detailsOnly  bool
	maxRecords   int
}

func registerHarvestFlags(cmd *cobra.Command, flags *harvestFlags) {
	cmd.Flags().BoolVar(&flags.discoverOnly, "discover-only", false, "stop after writing the discovered URL list")
	cmd.Flags().BoolVar(&flags.detailsOnly, "details-only", false, "skip discovery and read the URL list from a previous run")
	cmd.Flags().IntVar(&flags.maxRecords, "max-records", 0, "limit the number of detail pages scraped (0 = all)")
}

// catalog binds one harvestable record type to its extraction rules and
// output shape.
type catalog struct {
	name       string
	linkPrefix string
	urlHeader  string
	columns    []string
	detail     scrape.DetailExtractor
	settings   func(config.Config) config.CatalogConfig
}

func runHarvest(cmd *cobra.Command, cat catalog, flags harvestFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named(cat.name)

	ctx := cmd.Context()
	settings := cat.settings(cfg)

	if cfg.Metrics.Addr != "" {
		opsSrv := ops.NewServer(cfg.Metrics.Addr, logger.Named("ops"))
		opsSrv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = opsSrv.Shutdown(shutdownCtx)
		}()
	}

	fetch, closeFetcher, err := buildFetcher(cfg.Fetch, logger)
	if err != nil {
		return err
	}
	defer closeFetcher()

	pipeline := scrape.NewPipeline(
		scrape.Config{
			BaseURL:    settings.BaseURL,
			PageSize:   settings.PageSize,
			MaxOffset:  settings.MaxOffset,
			MaxRecords: flags.maxRecords,
			Workers:    cfg.Fetch.Workers,
		},
		fetch,
		extract.NewListing(cat.linkPrefix),
		cat.detail,
		scrape.NewChallengeDetector(cfg.Detector.ChallengeMarkers),
		scrape.NewController(cfg.Discovery.Policy(), logger.Named("discovery")),
		scrape.NewController(cfg.Detail.Policy(), logger.Named("detail")),
		logger,
	)

	addressList := sink.NewAddressList(filepath.Join(cfg.Output.Dir, settings.URLsFile), cat.urlHeader)

	var addresses []string
	if flags.detailsOnly {
		addresses, err = addressList.Load()
		if err != nil {
			return fmt.Errorf("load url list: %w", err)
		}
		logger.Info("loaded previously discovered addresses", zap.Int("count", len(addresses)))
	} else {
		addresses, err = pipeline.Discover(ctx, addressList)
		if err != nil {
			return fmt.Errorf("discovery phase: %w", err)
		}
	}

	if flags.discoverOnly {
		logger.Info("discover-only run complete", zap.Int("addresses", len(addresses)))
		return nil
	}

	records, err := sink.NewRecordSink(filepath.Join(cfg.Output.Dir, settings.RecordsFile), cat.columns)
	if err != nil {
		return fmt.Errorf("open record sink: %w", err)
	}

	stats, scrapeErr := pipeline.ScrapeDetails(ctx, addresses, records)
	closeErr := records.Close()
	if scrapeErr != nil {
		return fmt.Errorf("detail phase: %w", scrapeErr)
	}
	if closeErr != nil {
		return closeErr
	}

	logger.Info("harvest complete",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
	)
	return nil
}

func buildFetcher(cfg config.FetchConfig, logger *zap.Logger) (scrape.Fetcher, func(), error) {
	fcfg := fetcher.Config{
		UserAgent:        cfg.UserAgent,
		NavTimeout:       cfg.NavTimeout,
		SettleWait:       cfg.SettleWait,
		QPS:              cfg.QPS,
		BlockedResources: cfg.BlockedResources,
	}
	if cfg.RenderEnabled {
		chrome, err := fetcher.NewChrome(fcfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init chrome fetcher: %w", err)
		}
		return chrome, func() { _ = chrome.Close(context.Background()) }, nil
	}
	static, err := fetcher.NewStatic(fcfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init static fetcher: %w", err)
	}
	return static, func() { _ = static.Close(context.Background()) }, nil
}
