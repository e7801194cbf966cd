package store

// JobListing is a stored job posting. The embedding is generated from a
// weighted text of location, experience level, title, and description so
// location/seniority carry signal in similarity search.
type JobListing struct {
	ID              int32
	Title           string
	Company         string
	Location        string
	ExperienceLevel string
	SalaryRange     string
	Description     string
	Embedding       []float32
}

// JobListingResult is the projection shared by the vector and text search
// paths; the cache stores it verbatim so it must not depend on which path
// produced it.
type JobListingResult struct {
	Title           string  `json:"job_title"`
	Company         string  `json:"company"`
	Location        string  `json:"location"`
	ExperienceLevel string  `json:"experience_level"`
	SalaryRange     string  `json:"salary_range"`
	Score           float64 `json:"score,omitempty"`
}

// VectorJobSearch requests the nearest CandidateLimit listings to Vector.
type VectorJobSearch struct {
	Vector         []float32
	CandidateLimit int
}

// TextJobSearch requests case-insensitive substring filtering. An empty
// Title skips the title filter (used for catch-all queries).
type TextJobSearch struct {
	Title      string
	Location   string
	Experience string
	Limit      int
}

// FindJobListing filters listings for maintenance operations.
type FindJobListing struct {
	ID *int32
	// MissingEmbedding selects listings whose embedding has not been
	// computed yet.
	MissingEmbedding bool
	Limit            int
}
