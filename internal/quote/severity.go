package quote

// Severity grades a price impact for display.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

// Classify grades impact (in percent): below 1 is low, up to 5 is medium,
// above 5 is high.
func Classify(impact float64) Severity {
	switch {
	case impact < 1:
		return SeverityLow
	case impact <= 5:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Color is the display color associated with the severity.
func (s Severity) Color() string {
	switch s {
	case SeverityMedium:
		return "yellow"
	case SeverityHigh:
		return "red"
	default:
		return "green"
	}
}

// RequiresConfirmation reports whether a swap at this severity needs an
// explicit confirmation before submission.
func (s Severity) RequiresConfirmation() bool {
	return s == SeverityHigh
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
