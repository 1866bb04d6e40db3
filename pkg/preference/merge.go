package preference

// MergeStrategy determines how conflicts are resolved when the local and the
// server copy of the preference differ.
type MergeStrategy int

const (
	// LWW keeps whichever copy was updated last.
	LWW MergeStrategy = iota

	// DBWins uses the server copy and discards local ratings.
	DBWins

	// LocalWins keeps the local copy.
	LocalWins

	// Union keeps every rated movie; the newer copy wins per movie.
	Union
)

// String returns the strategy name.
func (m MergeStrategy) String() string {
	switch m {
	case LWW:
		return "lww"
	case DBWins:
		return "db-wins"
	case LocalWins:
		return "local-wins"
	case Union:
		return "union"
	default:
		return "unknown"
	}
}

// ParseMergeStrategy parses the names returned by String.
func ParseMergeStrategy(s string) (MergeStrategy, bool) {
	for _, m := range []MergeStrategy{LWW, DBWins, LocalWins, Union} {
		if m.String() == s {
			return m, true
		}
	}
	return LWW, false
}

// resolve reconciles local and remote. Neither argument is modified.
func resolve(strategy MergeStrategy, local, remote Preference) Preference {
	switch strategy {
	case DBWins:
		return remote.clone()
	case LocalWins:
		return local
	case Union:
		newer, older := local, remote
		if remote.UpdatedAt.After(local.UpdatedAt) {
			newer, older = remote, local
		}
		out := older.clone()
		for k, v := range newer.Ratings {
			out.Ratings[k] = v
		}
		out.UpdatedAt = newer.UpdatedAt
		return out
	default:
		if remote.UpdatedAt.After(local.UpdatedAt) {
			return remote.clone()
		}
		return local
	}
}
