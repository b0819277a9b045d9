package domain

import "fmt"

// DownloadState representa el ciclo de vida de un ManagedVideo
type DownloadState int

const (
	StateAdded DownloadState = iota
	StateQueued
	StateDownloading
	StateComplete
)

// String devuelve la forma usada en la base de datos y en el socket
func (s DownloadState) String() string {
	switch s {
	case StateAdded:
		return "added"
	case StateQueued:
		return "queued"
	case StateDownloading:
		return "downloading"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseDownloadState es la inversa de String
func ParseDownloadState(s string) (DownloadState, error) {
	switch s {
	case "added":
		return StateAdded, nil
	case "queued":
		return StateQueued, nil
	case "downloading":
		return StateDownloading, nil
	case "complete":
		return StateComplete, nil
	default:
		return StateAdded, fmt.Errorf("unknown download state: %q", s)
	}
}

// CanTransition aplica la tabla de transiciones permitidas.
// Complete sólo lo pide quien sabe que el proceso no fue cancelado y Added
// sólo la cancelación; un fin de proceso tardío no puede pisar un reset.
func (s DownloadState) CanTransition(to DownloadState) bool {
	switch s {
	case StateAdded:
		return to == StateQueued
	case StateQueued:
		return to == StateAdded || to == StateDownloading
	case StateDownloading:
		return to == StateAdded || to == StateComplete
	case StateComplete:
		return to == StateAdded || to == StateQueued
	default:
		return false
	}
}

// MarshalText serializa el estado con su nombre
func (s DownloadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText acepta los nombres de String
func (s *DownloadState) UnmarshalText(text []byte) error {
	parsed, err := ParseDownloadState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
