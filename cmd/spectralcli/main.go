// Command spectralcli drives the spectral core end to end against a real
// WAV file or a YouTube URL: decode, load, paint one tile, and report
// what happened. It exists to exercise pkg/spectral the way a browser
// host otherwise would, standing in for the WASM bridge during
// development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kakira9618/spectralcore/internal/decodeadapter"
	"github.com/kakira9618/spectralcore/internal/ingest"
	"github.com/kakira9618/spectralcore/internal/renderexport"
	"github.com/kakira9618/spectralcore/internal/telemetry"
	"github.com/kakira9618/spectralcore/pkg/logger"
	"github.com/kakira9618/spectralcore/pkg/spectral"
	"github.com/kakira9618/spectralcore/pkg/utils"
)

func main() {
	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "render":
		handleRender(os.Args[2:])
	case "fetch":
		handleFetch(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Println(`
  ___                 _             _  ___
 / __|_ __  ___ __ __| |_ _ _ __ _ | |/ __|___ _ _ ___
 \__ \ '_ \/ -_) _/ _|  _| '_/ _` + "`" + ` || | (__/ _ \ '_/ -_)
 |___/ .__/\___\__\__|\__|_| \__,_||_|\___\___/_| \___|
     |_|          audio-analysis / view-sync core`)
}

func printUsage() {
	fmt.Println("\nUsage:")
	fmt.Println("  spectralcli render [--out tile.png] [--db telemetry.sqlite3] <wav_file>")
	fmt.Println("  spectralcli fetch [--out_dir downloads] <youtube_url>")
}

func handleRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	out := fs.String("out", "tile.png", "path to write the rendered PNG tile")
	dbPath := fs.String("db", "", "telemetry SQLite path (empty disables telemetry)")
	viewStart := fs.Float64("view_start", 0, "seconds into the track the preview window starts at")
	viewDur := fs.Float64("view_duration", 5, "seconds the preview window spans")
	preferGPU := fs.Bool("gpu", false, "prefer the GPU backend when available")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Error: wav file path required")
		os.Exit(1)
	}
	wavPath := fs.Arg(0)

	log := logger.GetLogger()
	log.Infof("decoding %s", wavPath)

	info, err := os.Stat(wavPath)
	if err != nil {
		log.Fatalf("stat %s: %v", wavPath, err)
	}
	fmt.Printf("input: %s (%s)\n", filepath.Base(wavPath), humanize.Bytes(uint64(info.Size())))

	pcm, err := decodeadapter.FromWAVFile(wavPath)
	if err != nil {
		log.Fatalf("decode wav: %v", err)
	}
	fmt.Printf("decoded: %s Hz, %d ch, %.2fs\n",
		humanize.Comma(int64(pcm.SampleRate)), pcm.ChannelCount, pcm.Duration())

	opts := []spectral.Option{spectral.WithPreferGPU(*preferGPU), spectral.WithLogger(log)}

	var sink *telemetry.Sink
	if *dbPath != "" {
		sink, err = telemetry.Open(*dbPath)
		if err != nil {
			log.Warnf("telemetry disabled: %v", err)
		} else {
			defer sink.Close()
			opts = append(opts, spectral.WithTelemetry(sink))
		}
	}

	core, err := spectral.New(opts...)
	if err != nil {
		log.Fatalf("spectral.New: %v", err)
	}
	defer core.Teardown()

	started := time.Now()
	if err := core.Load(pcm); err != nil {
		log.Fatalf("Load: %v", err)
	}
	fmt.Printf("full-track analysis done in %s\n", time.Since(started))

	if err := core.SetView(*viewStart, *viewDur, 2048); err != nil {
		log.Fatalf("SetView: %v", err)
	}
	// SetView's hi-res tile build runs on a background goroutine; give it
	// a moment to land before rendering. A tile is only built when the
	// full-track hop exceeds 0.8 x samples-per-pixel (tile.IsWarranted);
	// at the 2048 used here that needs a hop above 1638 samples, so at
	// common sample rates the preview uses the full-track spectrogram.
	time.Sleep(150 * time.Millisecond)

	const wDev, hDev = 1024, 256
	buf := make([]byte, wDev*hDev*4)
	if err := core.Render(buf, wDev, hDev, 1); err != nil {
		log.Fatalf("Render: %v", err)
	}

	if err := renderexport.SavePNG(buf, wDev, hDev, *out); err != nil {
		log.Fatalf("SavePNG: %v", err)
	}
	fmt.Printf("wrote %s\n", *out)

	if sink != nil {
		rows, err := sink.RecentBySession(core.SessionID(), 10)
		if err == nil {
			fmt.Printf("telemetry: %d event(s) recorded this session\n", len(rows))
		}
	}
}

func handleFetch(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	outDir := fs.String("out_dir", "downloads", "directory to download into")
	sampleRate := fs.Int("sample_rate", 44100, "mono WAV sample rate to convert to")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Error: youtube url required")
		os.Exit(1)
	}
	url := fs.Arg(0)
	if !utils.IsYouTubeURL(url) {
		fmt.Printf("Error: %q does not look like a YouTube URL\n", url)
		os.Exit(1)
	}
	if id, err := utils.ExtractYouTubeID(url); err == nil {
		fmt.Printf("video id: %s\n", id)
	}

	log := logger.GetLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Println("downloading audio...")
	audioPath, meta, err := ingest.DownloadYouTubeAudio(ctx, url, *outDir)
	if err != nil {
		log.Fatalf("download: %v", err)
	}
	fmt.Printf("fetched %q by %s (%s)\n", meta.Title, meta.Artist, humanize.Bytes(fileSize(audioPath)))

	wavPath, err := ingest.ConvertToMonoWAV(ctx, audioPath, *outDir, ingest.ConvertWAVConfig{SampleRate: *sampleRate})
	if err != nil {
		log.Fatalf("convert: %v", err)
	}
	fmt.Printf("converted to mono WAV: %s\n", wavPath)
	fmt.Println("next: spectralcli render " + wavPath)
}

func fileSize(path string) uint64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}
