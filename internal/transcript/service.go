package transcript

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nexxt/connect/internal/metrics"
	"github.com/nexxt/connect/internal/stores/graph"
	"github.com/nexxt/connect/pkg/models"
)

var ErrPersonNotFound = errors.New("person not found in graph")

// Service extracts transcripts and optionally applies them to the graph
type Service struct {
	extractor Extractor
	graph     graph.Store
	notify    func()
}

// NewService creates a transcript service. notify, when not nil, is called
// after every transcript that changes a person's profile in the graph.
func NewService(extractor Extractor, g graph.Store, notify func()) *Service {
	return &Service{extractor: extractor, graph: g, notify: notify}
}

// Process extracts a profile from the transcript. When save is set and personID
// is given the extracted skills, expertise and interests replace the person's
// current sets in the graph.
func (s *Service) Process(ctx context.Context, req models.TranscriptRequest) (*models.TranscriptResponse, error) {
	profile, err := s.extractor.Extract(ctx, req.Transcript)
	if err != nil {
		metrics.TranscriptsProcessed.WithLabelValues(s.extractor.Name(), "error").Inc()
		return nil, fmt.Errorf("failed to extract transcript: %w", err)
	}

	resp := &models.TranscriptResponse{
		ExtractedData: profile,
		Message:       "Transcript processed successfully",
	}

	if req.SaveToGraph && req.PersonID != "" {
		applied, err := s.graph.ApplyTranscript(ctx, ToGraphProfile(req.PersonID, profile))
		if err != nil {
			metrics.TranscriptsProcessed.WithLabelValues(s.extractor.Name(), "error").Inc()
			return nil, fmt.Errorf("failed to save transcript data: %w", err)
		}
		if !applied {
			metrics.TranscriptsProcessed.WithLabelValues(s.extractor.Name(), "not_found").Inc()
			return nil, fmt.Errorf("%w: %s", ErrPersonNotFound, req.PersonID)
		}

		log.Printf("[TRANSCRIPT]: Applied transcript to %s (%d skills, %d expertise, %d interests)",
			req.PersonID, len(profile.Skills), len(profile.Expertise), len(profile.Interests))
		if s.notify != nil {
			s.notify()
		}

		personID := req.PersonID
		resp.PersonID = &personID
		resp.Message = "Transcript processed and data saved to knowledge graph"
	}

	metrics.TranscriptsProcessed.WithLabelValues(s.extractor.Name(), "ok").Inc()
	return resp, nil
}

// ToGraphProfile converts an extracted profile into graph updates
func ToGraphProfile(personID string, p *models.TranscriptProfile) graph.Profile {
	links := func(names []string) []graph.Link {
		out := make([]graph.Link, len(names))
		for i, n := range names {
			out[i] = graph.Link{Name: n}
		}
		return out
	}

	gp := graph.Profile{
		UserID:            personID,
		Skills:            links(p.Skills),
		Expertise:         links(p.Expertise),
		Interests:         links(p.Interests),
		JobRole:           p.JobRole,
		Location:          p.Location,
		YearsOfExperience: p.YearsOfExperience,
	}
	if p.Company != "" {
		gp.Company = &graph.Link{Name: p.Company}
	}
	for _, e := range p.Education {
		if strings.TrimSpace(e.Institution) == "" {
			continue
		}
		gp.Universities = append(gp.Universities, e.Institution)
	}
	return gp
}
