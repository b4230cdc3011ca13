package options

import "fmt"

// MidSource is the closed provenance enum for resolved mids, ordered by
// trustworthiness. Legacy string tags from older exports normalize through
// ParseMidSource.
type MidSource int

const (
	SourceNone MidSource = iota
	SourceTrue
	SourceParityTrue
	SourceParityClose
	SourceModel
	SourceClose
)

func (s MidSource) String() string {
	switch s {
	case SourceTrue:
		return "true"
	case SourceParityTrue:
		return "parity_true"
	case SourceParityClose:
		return "parity_close"
	case SourceModel:
		return "model"
	case SourceClose:
		return "close"
	default:
		return "none"
	}
}

// MarshalText lets the enum round-trip through JSON/CSV exports as its tag
func (s MidSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts canonical and legacy tags
func (s *MidSource) UnmarshalText(text []byte) error {
	parsed, err := ParseMidSource(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsFallback reports whether the source counts against the fallback budget.
// True and parity-from-true quotes are trusted; everything else is not.
func (s MidSource) IsFallback() bool {
	switch s {
	case SourceParityClose, SourceModel, SourceClose:
		return true
	default:
		return false
	}
}

// IsPreview reports whether the source is derived rather than directly
// quoted, which downgrades a proposal to advisory.
func (s MidSource) IsPreview() bool {
	switch s {
	case SourceParityTrue, SourceParityClose, SourceModel, SourceClose:
		return true
	default:
		return false
	}
}

// ParseMidSource normalizes canonical and legacy source tags
func ParseMidSource(tag string) (MidSource, error) {
	switch tag {
	case "true", "truemid", "true_mid":
		return SourceTrue, nil
	case "parity_true", "paritytrue", "parity":
		return SourceParityTrue, nil
	case "parity_close", "parityclose":
		return SourceParityClose, nil
	case "model", "theo", "theoretical":
		return SourceModel, nil
	case "close", "last":
		return SourceClose, nil
	case "none", "":
		return SourceNone, nil
	default:
		return SourceNone, fmt.Errorf("unknown mid source tag %q", tag)
	}
}

// SpreadFlag records the spread classification from the true-mid attempt.
// The flag survives into the final resolution even when a later source
// succeeds, so the verdict layer can see the original quote condition.
type SpreadFlag int

const (
	SpreadNone SpreadFlag = iota
	SpreadAbs              // admitted under the absolute bucket threshold
	SpreadRel              // admitted under the relative threshold
	SpreadTooWide
	SpreadOneSided
	SpreadMissing
	SpreadInvalid
)

func (f SpreadFlag) String() string {
	switch f {
	case SpreadAbs:
		return "abs"
	case SpreadRel:
		return "rel"
	case SpreadTooWide:
		return "too_wide"
	case SpreadOneSided:
		return "one_sided"
	case SpreadMissing:
		return "missing"
	case SpreadInvalid:
		return "invalid"
	default:
		return "none"
	}
}

// MarshalText renders the flag tag for exports
func (f SpreadFlag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
