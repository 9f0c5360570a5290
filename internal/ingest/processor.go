// Package ingest turns an arbitrary input (a local file or a YouTube URL)
// into a mono WAV file ready for decodeadapter, following the same
// ffmpeg-based conversion step but sourcing YouTube audio through the
// lrstanley/go-ytdlp library instead of shelling out to a hand-built
// yt-dlp command line.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/kakira9618/spectralcore/pkg/utils"
)

// ConvertWAVConfig controls the ffmpeg mono-downmix step.
type ConvertWAVConfig struct {
	SampleRate int
}

// ConvertToMonoWAV shells out to ffmpeg to produce a mono PCM16 WAV file,
// the format decodeadapter expects. ffmpeg itself is not a Go dependency
// this module can wrap, so this shells out via exec.Command.
func ConvertToMonoWAV(ctx context.Context, inputPath, outputDir string, cfg ConvertWAVConfig) (string, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	baseName := filepath.Base(inputPath)
	outputPath := filepath.Join(outputDir, strings.TrimSuffix(baseName, filepath.Ext(baseName))+".wav")

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// YTMetadata is the subset of yt-dlp's metadata this module cares about.
type YTMetadata struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	Duration   float64 `json:"duration"`
	WebpageURL string  `json:"webpage_url"`
}

func pickArtist(meta YTMetadata) string {
	if strings.TrimSpace(meta.Artist) != "" {
		return meta.Artist
	}
	if strings.TrimSpace(meta.Channel) != "" {
		return meta.Channel
	}
	if strings.TrimSpace(meta.Uploader) != "" {
		return meta.Uploader
	}
	return "Unknown Artist"
}

// DownloadYouTubeAudio fetches the best audio stream for youtubeURL into
// outputDir using go-ytdlp, returning the downloaded file's path and its
// parsed metadata. The caller runs ConvertToMonoWAV on the result before
// handing it to decodeadapter.
func DownloadYouTubeAudio(ctx context.Context, youtubeURL, outputDir string) (audioPath string, metadata *YTMetadata, err error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 3*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ytdlp.MustInstall(ctx, nil)

	metaResult, err := ytdlp.New().
		NoPlaylist().
		SkipDownload().
		DumpSingleJSON().
		NoWarnings().
		Run(ctx, youtubeURL)
	if err != nil {
		return "", nil, fmt.Errorf("yt-dlp metadata extraction failed: %w", err)
	}

	var ytMeta YTMetadata
	if err := json.Unmarshal([]byte(metaResult.Stdout), &ytMeta); err != nil {
		return "", nil, fmt.Errorf("failed to parse yt-dlp JSON: %w", err)
	}
	if strings.TrimSpace(ytMeta.ID) == "" {
		return "", nil, fmt.Errorf("missing video ID in yt-dlp output")
	}
	if ytMeta.Artist == "" {
		ytMeta.Artist = pickArtist(ytMeta)
	}

	outputTemplate := filepath.Join(outputDir, fmt.Sprintf("%s.%%(ext)s", ytMeta.ID))
	_, err = ytdlp.New().
		NoPlaylist().
		Format("ba").
		NoWarnings().
		Output(outputTemplate).
		Run(ctx, youtubeURL)
	if err != nil {
		return "", nil, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	audioExtensions := []string{".m4a", ".webm", ".opus", ".mp3", ".aac", ".ogg"}
	var downloadedPath string
	for _, ext := range audioExtensions {
		candidate := filepath.Join(outputDir, ytMeta.ID+ext)
		if _, err := os.Stat(candidate); err == nil {
			downloadedPath = candidate
			break
		}
	}
	if downloadedPath == "" {
		return "", nil, fmt.Errorf("downloaded audio file not found for video %s (checked extensions: %v)", ytMeta.ID, audioExtensions)
	}

	return downloadedPath, &ytMeta, nil
}
