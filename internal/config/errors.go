package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoInputDir is returned when no crawl directory is given.
	ErrNoInputDir = errors.New("no input directory specified")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidCaptureExtension is returned for an extension without a
	// leading dot.
	ErrInvalidCaptureExtension = errors.New("invalid capture extension: must start with '.'")

	// ErrInvalidThumbnailSize is returned when a thumbnail dimension is not
	// positive.
	ErrInvalidThumbnailSize = errors.New("invalid thumbnail size: width and height must be positive")

	// ErrThumbnailsWithoutScreenshots is returned when thumbnails are
	// requested but screenshots are not copied.
	ErrThumbnailsWithoutScreenshots = errors.New("thumbnails require copied screenshots")

	// ErrNoDBDir is returned when history is enabled without a directory.
	ErrNoDBDir = errors.New("no database directory specified")
)
