package models

// SoftDeletable is anything carrying the application-level deleted flag.
// The store itself knows nothing about it.
type SoftDeletable interface {
	IsDeleted() bool
}

// Active returns the entities whose deleted flag is unset.
func Active[T SoftDeletable](entities []T) []T {
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		if !e.IsDeleted() {
			out = append(out, e)
		}
	}
	return out
}

// Trashed returns the entities whose deleted flag is set.
func Trashed[T SoftDeletable](entities []T) []T {
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		if e.IsDeleted() {
			out = append(out, e)
		}
	}
	return out
}
