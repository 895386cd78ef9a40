package domain

// Common file name conventions shared by the converters and the auditors.
const (
	// BlueprintSuffix is appended to the input stem when a batch writes blueprints.
	BlueprintSuffix = "-blueprint"

	// DefaultPattern selects the rendered Mek images in a batch directory.
	DefaultPattern = "*.webp"
)
