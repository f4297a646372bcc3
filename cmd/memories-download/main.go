package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fpang/memories-download/internal/cli"
	"github.com/fpang/memories-download/internal/config"
	"github.com/fpang/memories-download/internal/filehandler"
	"github.com/fpang/memories-download/internal/jobs"
	"github.com/fpang/memories-download/internal/logging"
	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/metrics"
	"github.com/fpang/memories-download/internal/pipeline"
	"github.com/fpang/memories-download/internal/resolver"
	"github.com/fpang/memories-download/internal/s3util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// CLI flags
var (
	configFlag      string
	manifestFlag    string
	outputFlag      string
	photosFlag      bool
	videosFlag      bool
	debugFlag       bool
	s3BucketFlag    string
	s3PrefixFlag    string
	metricsFileFlag string
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "memories-download",
	Short: "Download and rebuild a memories export",
	Long: `Memories Download reads the memories_history.json file from a data export
(or the export zip itself), downloads every photo and video it lists, and
saves them by year and month with their capture time and location embedded.

Videos that were recorded as one continuous take but exported as several
short clips are joined back into a single file with ffmpeg.

Examples:
  memories-download --manifest ~/Downloads/mydata.zip --output ~/Pictures/Memories
  memories-download -m memories_history.json --videos
  memories-download --config memories.yaml --s3-bucket family-archive
  memories-download  # Interactive mode - opens file pickers`,
	SilenceUsage: true,
	RunE:         runDownload,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which external media tools are available",
	RunE:  runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&manifestFlag, "manifest", "m", "", "memories_history.json or export .zip")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Directory to save memories into (created if missing)")
	rootCmd.Flags().BoolVar(&photosFlag, "photos", false, "Download photos (default: both photos and videos)")
	rootCmd.Flags().BoolVar(&videosFlag, "videos", false, "Download videos (default: both photos and videos)")
	rootCmd.Flags().StringVar(&s3BucketFlag, "s3-bucket", "", "Mirror the finished library to this S3 bucket")
	rootCmd.Flags().StringVar(&s3PrefixFlag, "s3-prefix", "", "Key prefix for the S3 mirror")
	rootCmd.Flags().StringVar(&metricsFileFlag, "metrics-file", "", "Append EMF metrics lines to this file")
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers flags over the config file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = debugFlag
	}
	if flags.Changed("manifest") {
		cfg.Manifest = manifestFlag
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputFlag
	}
	// Naming only one of --photos/--videos selects just that batch.
	if flags.Changed("photos") || flags.Changed("videos") {
		cfg.Photos = photosFlag
		cfg.Videos = videosFlag
	}
	if flags.Changed("s3-bucket") {
		cfg.S3.Bucket = s3BucketFlag
	}
	if flags.Changed("s3-prefix") {
		cfg.S3.Prefix = s3PrefixFlag
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFileFlag
	}
	return cfg, nil
}

// runDownload is the main execution logic called by Cobra.
func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Init(cfg.Debug)

	if cfg.Manifest == "" {
		if cfg.Manifest, err = cli.PickManifest(); err != nil {
			return fmt.Errorf("no manifest selected: %w", err)
		}
		if !cmd.Flags().Changed("output") {
			if cfg.OutputDir, err = cli.PickOutputDirectory(cfg.OutputDir); err != nil {
				return fmt.Errorf("no output directory selected: %w", err)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	manifestPath, err := cli.ValidateManifestPath(cfg.Manifest)
	if err != nil {
		return err
	}
	outDir, err := cli.EnsureOutputDirectory(cfg.OutputDir)
	if err != nil {
		return err
	}

	lock, err := filehandler.LockOutput(outDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("Failed to release output lock")
		}
	}()

	if cfg.MetricsFile != "" {
		f, err := os.OpenFile(cfg.MetricsFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open metrics file: %w", err)
		}
		defer f.Close()
		metrics.SetOutput(f)
	}

	entries, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	photos, videos := manifest.Split(entries)

	runID := jobs.NewRunID()
	toolPaths := filehandler.ToolPaths{
		FFmpeg:   cfg.Tools.FFmpeg,
		FFprobe:  cfg.Tools.FFprobe,
		Exiftool: cfg.Tools.Exiftool,
	}
	stamper := filehandler.NewStamper(cfg.Tools.Exiftool)
	concat, err := filehandler.NewConcatenator(toolPaths)
	if err != nil {
		log.Warn().Err(err).Msg("Split videos will be kept as separate clips")
		concat = &filehandler.Concatenator{}
	}

	runLog := logging.NewRunLogger(runID).
		Version(version).
		Config("manifest", manifestPath).
		Config("outputDir", outDir).
		Config("linkMethod", cfg.HTTP.LinkMethod).
		Config("photosListed", fmt.Sprint(len(photos))).
		Config("videosListed", fmt.Sprint(len(videos))).
		Feature("photos", cfg.Photos).
		Feature("videos", cfg.Videos).
		Feature("s3Mirror", cfg.S3.Bucket != "").
		Feature("metricsFile", cfg.MetricsFile != "")
	for _, s := range filehandler.CheckTools(toolPaths) {
		runLog.Tool(s.Name, s.Path)
	}
	runLog.Log()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := pipeline.Deps{
		Resolver: resolver.NewClient(resolver.Options{
			LinkTimeout: cfg.LinkTimeout(),
			LinkMethod:  cfg.HTTP.LinkMethod,
		}),
		Namer:        filehandler.NewNamer(outDir),
		Files:        filehandler.FS{},
		Stamper:      stamper,
		RunID:        runID,
		EntryTimeout: cfg.ContentTimeout(),
	}

	view := newProgressView(os.Stderr, isTerminal(os.Stderr))
	failed := pipeline.NewFailedSet()
	summary := runSummary{OutputDir: outDir}

	if cfg.Photos {
		res, err := runBatch(ctx, view, deps, manifest.Photo, len(photos), func(d pipeline.Deps) (pipeline.Result, error) {
			return pipeline.NewPhotos(d).Run(ctx, photos, failed)
		})
		summary.Photos = &res
		if err != nil {
			return interrupted(err)
		}
	}

	if cfg.Videos {
		res, err := runBatch(ctx, view, deps, manifest.Video, len(videos), func(d pipeline.Deps) (pipeline.Result, error) {
			return pipeline.NewVideos(d, concat).Run(ctx, videos, failed)
		})
		summary.Videos = &res
		if err != nil {
			return interrupted(err)
		}
	}

	if cfg.S3.Bucket != "" {
		mirror, err := mirrorLibrary(ctx, cfg, outDir, runID)
		if err != nil {
			log.Error().Err(err).Str("bucket", cfg.S3.Bucket).Msg("S3 mirror failed")
		}
		summary.Mirror = mirror
	}

	summary.Failed = failed.Entries()
	printSummary(os.Stdout, summary)
	return nil
}

// runBatch runs one driver with its own observer so every notification of
// the batch is rendered before the next batch starts.
func runBatch(ctx context.Context, view *progressView, deps pipeline.Deps, kind manifest.MediaType, total int,
	run func(pipeline.Deps) (pipeline.Result, error)) (pipeline.Result, error) {
	if total == 0 {
		log.Info().Str("type", string(kind)).Msg("Nothing to download")
		return pipeline.Result{}, nil
	}

	view.StartBatch(kind, total)
	obs := pipeline.NewAsyncObserver(view.Handle)
	deps.Observer = obs

	res, err := run(deps)
	obs.Close()
	view.EndBatch()
	return res, err
}

func mirrorLibrary(ctx context.Context, cfg *config.Config, outDir, runID string) (*s3util.MirrorResult, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)

	res, err := s3util.MirrorTree(ctx, client, cfg.S3.Bucket, cfg.S3.Prefix, outDir, runID)
	return &res, err
}

func interrupted(err error) error {
	if errors.Is(err, context.Canceled) {
		return errors.New("download interrupted")
	}
	return err
}

// runCheck reports external tool availability.
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Init(cfg.Debug)

	statuses := filehandler.CheckTools(filehandler.ToolPaths{
		FFmpeg:   cfg.Tools.FFmpeg,
		FFprobe:  cfg.Tools.FFprobe,
		Exiftool: cfg.Tools.Exiftool,
	})
	fmt.Fprint(cmd.OutOrStdout(), renderToolTable(statuses))

	for _, s := range statuses {
		if s.Name == filehandler.ToolFFmpeg && !s.Available() {
			return errors.New("ffmpeg is required to join split videos")
		}
	}
	return nil
}
