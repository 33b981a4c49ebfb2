package models

// TranscriptRequest asks the service to extract profile data from free text
type TranscriptRequest struct {
	Transcript  string `json:"transcript" binding:"required"`
	PersonID    string `json:"person_id,omitempty"`
	SaveToGraph bool   `json:"save_to_graph"`
}

// Education is a study entry extracted from a transcript
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Year        *int   `json:"year,omitempty"`
}

// JobHistory is an employment entry extracted from a transcript
type JobHistory struct {
	Role      string `json:"role"`
	Company   string `json:"company"`
	StartYear *int   `json:"start_year,omitempty"`
	EndYear   *int   `json:"end_year,omitempty"`
}

// TranscriptProfile is the structured data extracted from a transcript
type TranscriptProfile struct {
	Skills            []string     `json:"skills"`
	Expertise         []string     `json:"expertise"`
	Interests         []string     `json:"interests"`
	Education         []Education  `json:"education"`
	JobHistory        []JobHistory `json:"job_history"`
	JobRole           string       `json:"job_role,omitempty"`
	Company           string       `json:"company,omitempty"`
	Location          string       `json:"location,omitempty"`
	YearsOfExperience *int         `json:"years_of_experience,omitempty"`
}

// Empty reports whether nothing was extracted
func (p *TranscriptProfile) Empty() bool {
	return len(p.Skills) == 0 && len(p.Expertise) == 0 && len(p.Interests) == 0 &&
		len(p.Education) == 0 && len(p.JobHistory) == 0 && p.JobRole == "" &&
		p.Company == "" && p.Location == "" && p.YearsOfExperience == nil
}

// TranscriptResponse is returned by the transcript processing endpoint
type TranscriptResponse struct {
	ExtractedData *TranscriptProfile `json:"extracted_data"`
	PersonID      *string            `json:"person_id"`
	Message       string             `json:"message"`
}

// ExampleTranscript is a canned transcript used for manual testing
type ExampleTranscript struct {
	ExampleID  string `json:"example_id"`
	Transcript string `json:"transcript"`
}
