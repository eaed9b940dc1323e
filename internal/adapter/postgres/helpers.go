package postgres

// scannable abstracts pgx.Row and pgx.Rows for the scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// nullIfEmpty converts an empty string to a NULL-able pointer for
// optional UUID columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// emptyIfNil converts a NULL-able text column back to the domain's
// empty-string convention.
func emptyIfNil(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
