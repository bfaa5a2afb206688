package transcoder

import (
	"context"
)

// Variant represents a single quality level for ABR (Adaptive Bitrate) streaming.
type Variant struct {
	// Name is the identifier for this variant (e.g., "1080p", "720p", "360p").
	Name string
	// Height is the video height in pixels. Width keeps the source aspect ratio.
	Height int
	// Bitrate is the target bitrate in bits per second, used in master playlist.
	Bitrate int
}

// VariantOutput contains the result for a single quality variant.
type VariantOutput struct {
	Variant      Variant
	ManifestPath string
	SegmentPaths []string
}

// ABROutput contains the result of a multi-bitrate transcoding operation.
type ABROutput struct {
	MasterManifestPath string
	Variants           []VariantOutput
}

// Processor turns an uploaded original into streamable outputs.
type Processor interface {
	// Probe returns the duration of the input in seconds.
	Probe(ctx context.Context, inputPath string) (float64, error)

	// Thumbnail writes a single JPEG frame scaled to width x height.
	Thumbnail(ctx context.Context, inputPath, outputPath string, width, height int) error

	// TranscodeToABR generates a master.m3u8 plus one subdirectory per variant
	// (outputDir/720p/playlist.m3u8 and its segments).
	// The output directory must exist before calling this method.
	TranscodeToABR(ctx context.Context, inputPath, outputDir string, variants []Variant) (*ABROutput, error)
}
