package errors

import "fmt"

// MissingParameter creates a validation error for an omitted required tool parameter.
func MissingParameter(toolName, param string) *CoreError {
	return &CoreError{
		Category: CategoryValidation,
		Code:     "missing_parameter",
		Message:  fmt.Sprintf("%s: missing required parameter %q", toolName, param),
	}
}

// InvalidParameter creates a validation error for a parameter failing schema validation.
func InvalidParameter(toolName, param, reason string) *CoreError {
	return &CoreError{
		Category: CategoryValidation,
		Code:     "invalid_parameter",
		Message:  fmt.Sprintf("%s: parameter %q invalid: %s", toolName, param, reason),
	}
}

// ToolNotFound creates an error for when a requested tool does not exist.
func ToolNotFound(name string) *CoreError {
	return &CoreError{
		Category: CategoryValidation,
		Code:     "tool_not_found",
		Message:  fmt.Sprintf("unknown tool: %s", name),
	}
}

// ToolRuntimeFailed creates an error for a tool that ran but failed (non-zero
// exit, missing file, ambiguous edit, ...).
func ToolRuntimeFailed(name, message string, cause error) *CoreError {
	return &CoreError{
		Category: CategoryToolRuntime,
		Code:     "tool_runtime_failed",
		Message:  fmt.Sprintf("%s: %s", name, message),
		Cause:    cause,
	}
}

// PermissionDenied creates an error for when tool access is denied.
func PermissionDenied(name string) *CoreError {
	return &CoreError{
		Category: CategoryPermission,
		Code:     "permission_denied",
		Message:  fmt.Sprintf("permission denied for tool %q", name),
	}
}

// AdapterUnavailable creates an error for when the execution backend is disconnected.
func AdapterUnavailable(op string) *CoreError {
	return &CoreError{
		Category: CategoryAdapter,
		Code:     "adapter_unavailable",
		Message:  fmt.Sprintf("backend unavailable: %s", op),
	}
}

// PathOutsideRoot creates an adapter error for a path escaping the project root.
func PathOutsideRoot(path string) *CoreError {
	return &CoreError{
		Category: CategoryAdapter,
		Code:     "path_outside_root",
		Message:  fmt.Sprintf("path outside project directory: %s", path),
	}
}

// ProviderUnavailable creates a retryable error for an unreachable model provider.
func ProviderUnavailable(cause error) *CoreError {
	return &CoreError{
		Category:  CategoryProvider,
		Code:      "provider_unavailable",
		Message:   "model provider is unavailable",
		Retryable: true,
		Cause:     cause,
	}
}

// ProviderRequestFailed creates a retryable error for a failed provider request.
func ProviderRequestFailed(cause error) *CoreError {
	return &CoreError{
		Category:  CategoryProvider,
		Code:      "provider_request_failed",
		Message:   "model provider request failed",
		Retryable: true,
		Cause:     cause,
	}
}

// Cancelled creates the loop-level cancellation outcome.
func Cancelled() *CoreError {
	return &CoreError{
		Category: CategoryCancelled,
		Code:     "cancelled",
		Message:  "session was cancelled",
	}
}

// RoundLimitReached creates the loop-level safety-cap outcome.
func RoundLimitReached(rounds int) *CoreError {
	return &CoreError{
		Category: CategoryRoundLimit,
		Code:     "round_limit",
		Message:  fmt.Sprintf("agent loop exceeded %d rounds", rounds),
	}
}

// ConfigLoadFailed creates an error for when configuration loading fails.
func ConfigLoadFailed(path string, cause error) *CoreError {
	return &CoreError{
		Category: CategoryConfig,
		Code:     "config_load_failed",
		Message:  fmt.Sprintf("failed to load config from %q", path),
		Cause:    cause,
	}
}
