package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Store Errors (E100-E119)
	// ============================================

	"E101": {
		Category: CategoryStore,
		Message:  "Malformed reducer map",
	},
	"E102": {
		Category: CategoryStore,
		Message:  "Reducer returned no initial state",
	},
	"E103": {
		Category: CategoryStore,
		Message:  "Reducer panicked",
	},
	"E104": {
		Category: CategoryStore,
		Message:  "Unsupported action value",
	},
	"E105": {
		Category: CategoryStore,
		Message:  "Action has no type",
	},
	"E106": {
		Category: CategoryStore,
		Message:  "Dispatch while constructing middleware",
		Detail:   "Middleware may not dispatch while the chain is being built.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},

	// ============================================
	// Handoff Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryHandoff,
		Message:  "Malformed current user handoff",
	},

	// ============================================
	// Transport Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryTransport,
		Message:  "API request failed",
	},
	"E161": {
		Category: CategoryTransport,
		Message:  "API returned an error",
	},
	"E162": {
		Category:   CategoryTransport,
		Message:    "Action type not accepted",
		Suggestion: "Only actions listed with server.WithActionTypes may be posted",
	},

	// ============================================
	// CLI Errors (E180-E199)
	// ============================================

	"E180": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
