package catalog

import "strings"

// Domain is the closed set of column domain tags the constraint graph uses
// to decide whether two columns could ever be join-compatible.
type Domain int

const (
	DomainUnknown Domain = iota
	DomainText
	DomainInteger
	DomainReal
	DomainBlob
)

func (d Domain) String() string {
	switch d {
	case DomainText:
		return "text"
	case DomainInteger:
		return "integer"
	case DomainReal:
		return "real"
	case DomainBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// NormalizeDomain maps a driver-declared SQL type name (e.g. "VARCHAR(255)",
// "INTEGER", "DOUBLE PRECISION") to one of the four domain tags. Unknown
// affinities fall back to DomainText, following SQLite's own type affinity
// rules, which this spec's minimum target driver uses.
func NormalizeDomain(declared string) Domain {
	t := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case t == "":
		return DomainText
	case containsAny(t, "INT"):
		return DomainInteger
	case containsAny(t, "CHAR", "CLOB", "TEXT"):
		return DomainText
	case containsAny(t, "BLOB"):
		return DomainBlob
	case containsAny(t, "REAL", "FLOA", "DOUB", "NUMERIC", "DECIMAL"):
		return DomainReal
	default:
		return DomainText
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
