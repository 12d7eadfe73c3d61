package errors

// Common error codes used across domains
const (
	CodeNotFound       Code = "not_found"
	CodeInvalidRequest Code = "invalid_request"
	CodeInternal       Code = "internal_error"
	CodeUnavailable    Code = "unavailable"
)

// ============================================================================
// Board Errors
// ============================================================================

var (
	// ErrConfigRootMissing is returned when the board configuration root is absent or not a directory
	ErrConfigRootMissing = New(DomainBoard, "config_root_missing", ExitConfig,
		"Board configuration root does not exist")

	// ErrIncompleteBoardDefinition is returned when build.json or link.ld is missing for a board
	ErrIncompleteBoardDefinition = New(DomainBoard, "incomplete_definition", ExitConfig,
		"Incomplete board definition")

	// ErrMalformedConfig is returned when a board record cannot be decoded or lacks required fields
	ErrMalformedConfig = New(DomainBoard, "malformed_config", ExitConfig,
		"Malformed board configuration")

	// ErrBoardNameMismatch is returned when the declared name differs from the board directory
	ErrBoardNameMismatch = New(DomainBoard, "name_mismatch", ExitConfig,
		"Board name does not match its directory")
)

// ============================================================================
// Build Errors
// ============================================================================

var (
	// ErrBuildFailed is returned when the compiler exits with a nonzero status
	ErrBuildFailed = New(DomainBuild, "build_failed", ExitFailure,
		"Build failed")

	// ErrToolNotFound is returned when a toolchain binary cannot be resolved
	ErrToolNotFound = New(DomainBuild, "tool_not_found", ExitNotFound,
		"Required tool not found")
)

// ============================================================================
// Pipeline Errors
// ============================================================================

var (
	// ErrPostBuildStepFailed is returned when extraction, disassembly, run or debug exits nonzero
	ErrPostBuildStepFailed = New(DomainPipeline, "step_failed", ExitFailure,
		"Post-build step failed")

	// ErrInterruptedByUser is returned when an interactive step was interrupted from the terminal.
	// It terminates the CLI cleanly.
	ErrInterruptedByUser = New(DomainPipeline, "interrupted", ExitOK,
		"Interrupted by user")

	// ErrUnknownStep is returned when the pipeline is asked to run a step it does not know
	ErrUnknownStep = New(DomainPipeline, CodeInvalidRequest, ExitConfig,
		"Unknown pipeline step")
)

// ============================================================================
// Workspace Errors
// ============================================================================

var (
	// ErrManifestInvalid is returned when Cargo.toml is missing or has no package name
	ErrManifestInvalid = New(DomainWorkspace, "manifest_invalid", ExitConfig,
		"Invalid crate manifest")

	// ErrWorkspaceIO is returned when a housekeeping filesystem operation fails
	ErrWorkspaceIO = New(DomainWorkspace, "io_failed", ExitFailure,
		"Workspace operation failed")
)

// ============================================================================
// Storage Errors
// ============================================================================

var (
	// ErrStorageNotFound is returned when a storage object cannot be found
	ErrStorageNotFound = New(DomainStorage, CodeNotFound, ExitFailure,
		"Object not found in storage")

	// ErrPublishFailed is returned when an artifact upload fails
	ErrPublishFailed = New(DomainStorage, "publish_failed", ExitFailure,
		"Failed to publish artifact")

	// ErrStorageUnavailable is returned when the storage backend is unreachable
	ErrStorageUnavailable = New(DomainStorage, CodeUnavailable, ExitFailure,
		"Storage backend unavailable")
)

// ============================================================================
// Configuration Errors
// ============================================================================

var (
	// ErrConfigInvalid is returned when kbuild settings cannot be resolved
	ErrConfigInvalid = New(DomainConfig, CodeInvalidRequest, ExitConfig,
		"Invalid configuration")
)

// ============================================================================
// Internal Errors
// ============================================================================

var (
	// ErrInternal is a generic internal error
	ErrInternal = New(DomainInternal, CodeInternal, ExitFailure,
		"Internal error")
)
