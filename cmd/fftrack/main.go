package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/media-luna/fftrack/configs"
	"github.com/media-luna/fftrack/internal/audio"
	"github.com/media-luna/fftrack/internal/engine"
	"github.com/media-luna/fftrack/internal/ferrors"
	"github.com/media-luna/fftrack/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	cfgPath := os.Getenv("FFTRACK_CONFIG")
	if cfgPath == "" {
		dir, _ := os.Getwd()
		cfgPath = filepath.Join(dir, "configs", "config.yaml")
	}
	cfg, err := configs.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()

	switch args[0] {
	case "ingest":
		return cmdIngest(ctx, cfg, args[1:])
	case "ingest-dir":
		return cmdIngestDir(ctx, cfg, args[1:])
	case "identify":
		return cmdIdentify(ctx, cfg, args[1:])
	case "listen":
		return cmdListen(ctx, cfg, args[1:])
	case "list":
		return cmdList(ctx, cfg, args[1:])
	case "delete":
		return cmdDelete(ctx, cfg, args[1:])
	case "cleanup":
		return cmdCleanup(ctx, cfg, args[1:])
	default:
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `fftrack <command> [flags]

Commands:
  ingest      -file PATH -title T -artist A    fingerprint and store one track
  ingest-dir  -dir PATH                        ingest every audio file under PATH
  identify    -file PATH                       identify a query clip
  listen      -seconds N                       identify from the microphone
  list                                         list catalog tracks
  delete      -id TRACK_ID                     remove a track
  cleanup                                      remove duplicate-content tracks`)
}

// cmdIngest: exit 0 on success, 2 on invalid/empty audio, 3 on schema
// mismatch (spec §6).
func cmdIngest(ctx context.Context, cfg configs.Config, args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	file := fs.String("file", "", "path to the audio file to ingest")
	title := fs.String("title", "", "track title")
	artist := fs.String("artist", "", "track artist")
	fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "ingest: -file is required")
		return 2
	}

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return exitForOpenErr(err)
	}
	defer eng.Close()

	trackID, err := eng.Ingest(ctx, *file, *title, *artist)
	if err != nil {
		logger.Error(err)
		return exitForPipelineErr(err)
	}

	fmt.Printf("ingested track %d: %q by %q\n", trackID, *title, *artist)
	return 0
}

// cmdIngestDir walks a directory and ingests every entry, reporting
// progress with a bar (spec: bulk ingest, supplemented from the teacher's
// single-file-at-a-time Save workflow).
func cmdIngestDir(ctx context.Context, cfg configs.Config, args []string) int {
	fs := flag.NewFlagSet("ingest-dir", flag.ExitOnError)
	dir := fs.String("dir", "", "directory of audio files to ingest")
	fs.Parse(args)

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "ingest-dir: -dir is required")
		return 2
	}

	var files []string
	err := filepath.WalkDir(*dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "walk %s: %v\n", *dir, err)
		return 2
	}

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return exitForOpenErr(err)
	}
	defer eng.Close()

	bar := progressbar.Default(int64(len(files)), "ingesting")
	failures := 0
	for _, f := range files {
		title := filepath.Base(f)
		if _, err := eng.Ingest(ctx, f, title, ""); err != nil {
			logger.Warnf("skip %s: %v", f, err)
			failures++
		}
		bar.Add(1)
	}

	fmt.Printf("ingested %d/%d files\n", len(files)-failures, len(files))
	if failures > 0 {
		return 2
	}
	return 0
}

// cmdIdentify: exit 0 on a match, 1 on NoMatch, 3 on schema mismatch, 2 on
// any other error (spec §6).
func cmdIdentify(ctx context.Context, cfg configs.Config, args []string) int {
	fs := flag.NewFlagSet("identify", flag.ExitOnError)
	file := fs.String("file", "", "path to the query audio clip")
	fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "identify: -file is required")
		return 2
	}

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return exitForOpenErr(err)
	}
	defer eng.Close()

	result, err := eng.Identify(ctx, *file)
	if err != nil {
		logger.Error(err)
		return exitForPipelineErr(err)
	}
	return reportResult(result)
}

// cmdListen captures from the microphone for -seconds and identifies the
// recording; same exit-code contract as identify.
func cmdListen(ctx context.Context, cfg configs.Config, args []string) int {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	seconds := fs.Int("seconds", 10, "seconds to record before identifying")
	fs.Parse(args)

	rec, err := audio.NewRecorder(cfg.SampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open microphone: %v\n", err)
		return 2
	}
	defer rec.Close()

	logger.Infof("listening for %ds...", *seconds)
	samples, err := rec.Record(time.Duration(*seconds) * time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "record: %v\n", err)
		return 2
	}

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return exitForOpenErr(err)
	}
	defer eng.Close()

	result, err := eng.IdentifyPCM(ctx, samples)
	if err != nil {
		logger.Error(err)
		return exitForPipelineErr(err)
	}
	return reportResult(result)
}

func reportResult(result engine.Result) int {
	if !result.Matched {
		fmt.Println("no match")
		return 1
	}
	fmt.Printf("match: %q by %q (track %d, confidence %.3f, offset %.0fms)\n",
		result.Title, result.Artist, result.TrackID, result.Confidence, result.AlignedOffsetMs)
	return 0
}

func cmdList(ctx context.Context, cfg configs.Config, _ []string) int {
	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return exitForOpenErr(err)
	}
	defer eng.Close()

	tracks, err := eng.List(ctx)
	if err != nil {
		logger.Error(err)
		return 2
	}
	if len(tracks) == 0 {
		fmt.Println("no tracks in catalog")
		return 0
	}
	for _, t := range tracks {
		fmt.Printf("%d\t%s\t%s\t%dms\t%s\n", t.TrackID, t.Title, t.Artist, t.DurationMs, t.CreatedAt.Format(time.RFC3339))
	}
	return 0
}

func cmdDelete(ctx context.Context, cfg configs.Config, args []string) int {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", -1, "track id to delete")
	fs.Parse(args)

	if *id < 0 {
		fmt.Fprintln(os.Stderr, "delete: -id is required")
		return 2
	}

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return exitForOpenErr(err)
	}
	defer eng.Close()

	if err := eng.Delete(ctx, *id); err != nil {
		logger.Error(err)
		return 2
	}
	fmt.Printf("deleted track %d\n", *id)
	return 0
}

func cmdCleanup(ctx context.Context, cfg configs.Config, _ []string) int {
	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return exitForOpenErr(err)
	}
	defer eng.Close()

	removed, err := eng.Cleanup(ctx)
	if err != nil {
		logger.Error(err)
		return 2
	}
	fmt.Printf("removed %d duplicate track(s)\n", removed)
	return 0
}

func exitForOpenErr(err error) int {
	fmt.Fprintf(os.Stderr, "open store: %v\n", err)
	if ferrors.Is(err, ferrors.SchemaMismatch) {
		return 3
	}
	return 2
}

func exitForPipelineErr(err error) int {
	if ferrors.Is(err, ferrors.SchemaMismatch) {
		return 3
	}
	return 2
}
