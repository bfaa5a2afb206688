package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FFmpegConfig holds configuration for the FFmpeg processor.
type FFmpegConfig struct {
	// FFmpegPath and FFprobePath default to the binaries found in PATH.
	FFmpegPath  string
	FFprobePath string

	VideoCodec string
	// VideoPreset controls the encoding speed/quality tradeoff.
	VideoPreset string
	AudioCodec  string

	// HLSSegmentDuration is the target duration of each HLS segment in seconds.
	HLSSegmentDuration int

	// ThumbnailOffset is the timestamp of the frame used as thumbnail.
	ThumbnailOffset string
}

// DefaultFFmpegConfig returns an FFmpegConfig with production-ready defaults.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		VideoCodec:         "libx264",
		VideoPreset:        "fast",
		AudioCodec:         "aac",
		HLSSegmentDuration: 6,
		ThumbnailOffset:    "00:00:01",
	}
}

// DefaultABRVariants is the rendition ladder offered to players.
func DefaultABRVariants() []Variant {
	return []Variant{
		{Name: "1080p", Height: 1080, Bitrate: 5000000},
		{Name: "720p", Height: 720, Bitrate: 2800000},
		{Name: "480p", Height: 480, Bitrate: 1400000},
		{Name: "360p", Height: 360, Bitrate: 800000},
	}
}

// runFunc executes a binary and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpegProcessor implements Processor by shelling out to ffmpeg and ffprobe.
type FFmpegProcessor struct {
	config FFmpegConfig
	run    runFunc
}

var _ Processor = (*FFmpegProcessor)(nil)

func NewFFmpegProcessor(cfg FFmpegConfig) *FFmpegProcessor {
	return &FFmpegProcessor{
		config: cfg,
		run:    execRun,
	}
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s execution failed: %w: %s", name, err, lastLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Probe reads the container duration with ffprobe.
func (p *FFmpegProcessor) Probe(ctx context.Context, inputPath string) (float64, error) {
	if err := validateInput(inputPath); err != nil {
		return 0, err
	}

	out, err := p.run(ctx, p.config.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath,
	)
	if err != nil {
		return 0, err
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// Thumbnail grabs one frame at ThumbnailOffset.
func (p *FFmpegProcessor) Thumbnail(ctx context.Context, inputPath, outputPath string, width, height int) error {
	if err := validateInput(inputPath); err != nil {
		return err
	}
	if err := validateOutputDir(filepath.Dir(outputPath)); err != nil {
		return err
	}

	_, err := p.run(ctx, p.config.FFmpegPath, p.buildThumbnailArgs(inputPath, outputPath, width, height)...)
	return err
}

func (p *FFmpegProcessor) buildThumbnailArgs(inputPath, outputPath string, width, height int) []string {
	return []string{
		"-ss", p.config.ThumbnailOffset,
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-y",
		outputPath,
	}
}

// TranscodeToABR processes each variant sequentially and then writes the
// master playlist.
func (p *FFmpegProcessor) TranscodeToABR(ctx context.Context, inputPath, outputDir string, variants []Variant) (*ABROutput, error) {
	if err := validateInput(inputPath); err != nil {
		return nil, err
	}
	if err := validateOutputDir(outputDir); err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("at least one variant is required")
	}

	var outputs []VariantOutput
	for _, variant := range variants {
		variantDir := filepath.Join(outputDir, variant.Name)
		if err := os.MkdirAll(variantDir, 0755); err != nil {
			return nil, fmt.Errorf("create variant directory %s: %w", variant.Name, err)
		}

		manifestPath := filepath.Join(variantDir, "playlist.m3u8")
		segmentPattern := filepath.Join(variantDir, "segment_%03d.ts")
		args := p.buildVariantArgs(inputPath, manifestPath, segmentPattern, variant)

		if _, err := p.run(ctx, p.config.FFmpegPath, args...); err != nil {
			return nil, fmt.Errorf("transcode variant %s: %w", variant.Name, err)
		}

		segments, err := collectSegments(variantDir)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", variant.Name, err)
		}
		outputs = append(outputs, VariantOutput{
			Variant:      variant,
			ManifestPath: manifestPath,
			SegmentPaths: segments,
		})
	}

	masterPath := filepath.Join(outputDir, "master.m3u8")
	if err := writeMasterPlaylist(masterPath, outputs); err != nil {
		return nil, err
	}

	return &ABROutput{
		MasterManifestPath: masterPath,
		Variants:           outputs,
	}, nil
}

func (p *FFmpegProcessor) buildVariantArgs(inputPath, manifestPath, segmentPattern string, variant Variant) []string {
	// -2 keeps the width even, which libx264 requires.
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", variant.Height),
		"-c:v", p.config.VideoCodec,
		"-preset", p.config.VideoPreset,
		"-b:v", strconv.Itoa(variant.Bitrate),
		"-c:a", p.config.AudioCodec,
		"-f", "hls",
		"-hls_time", strconv.Itoa(p.config.HLSSegmentDuration),
		"-hls_list_size", "0",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", segmentPattern,
		"-y",
		manifestPath,
	}
}

func validateInput(inputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", inputPath)
		}
		return fmt.Errorf("failed to access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a file: %s", inputPath)
	}
	return nil
}

func validateOutputDir(outputDir string) error {
	info, err := os.Stat(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", outputDir)
		}
		return fmt.Errorf("failed to access output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path is not a directory: %s", outputDir)
	}
	return nil
}

func collectSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".ts") {
			segments = append(segments, filepath.Join(dir, entry.Name()))
		}
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments generated in %s", dir)
	}
	return segments, nil
}

// writeMasterPlaylist assumes 16:9 when advertising RESOLUTION.
func writeMasterPlaylist(path string, variants []VariantOutput) error {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n\n")

	for _, v := range variants {
		width := v.Variant.Height * 16 / 9
		if width%2 != 0 {
			width++
		}
		fmt.Fprintf(&sb, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n", v.Variant.Bitrate, width, v.Variant.Height)
		fmt.Fprintf(&sb, "%s/playlist.m3u8\n\n", v.Variant.Name)
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write master playlist: %w", err)
	}
	return nil
}
