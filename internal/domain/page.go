package domain

import "time"

// Page is one page of a paginated listing. An empty NextPage means there are
// no further pages.
type Page struct {
	Results  []PostSummary `json:"results"`
	NextPage string        `json:"next_page,omitempty"`
}

// PrerenderStats holds statistics about a prerender run.
type PrerenderStats struct {
	Paths    int
	Rendered int
	NotFound int
	Errors   int
	Duration time.Duration
}

// PrerenderState is the persisted summary of prerender runs.
type PrerenderState struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	LastRunAt     time.Time `db:"last_run_at"`
	LastPaths     int64     `db:"last_paths"`
	TotalRendered int64     `db:"total_rendered"`
}

// ExportStats holds statistics about a static export.
type ExportStats struct {
	Pages    int
	Posts    int
	NotFound int
	Files    int
	Bytes    int64
	Duration time.Duration
}
