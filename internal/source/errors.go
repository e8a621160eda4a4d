package source

import "fmt"

// UnavailableError reports that the dataset could not be resolved from any
// configured locator. HadFallback distinguishes "primary and fallback both
// failed" from "primary failed and no fallback was configured" so callers
// know whether supplying a fallback would help.
type UnavailableError struct {
	PrimaryLocator  string
	FallbackLocator string
	Primary         error
	Fallback        error
	HadFallback     bool
}

func (e *UnavailableError) Error() string {
	if e.HadFallback {
		return fmt.Sprintf("source unavailable: primary %q failed (%v); fallback %q failed (%v)",
			e.PrimaryLocator, e.Primary, e.FallbackLocator, e.Fallback)
	}
	return fmt.Sprintf("source unavailable: primary %q failed (%v); no fallback configured",
		e.PrimaryLocator, e.Primary)
}

func (e *UnavailableError) Unwrap() []error {
	if e.Fallback != nil {
		return []error{e.Primary, e.Fallback}
	}
	return []error{e.Primary}
}
