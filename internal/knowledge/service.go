package knowledge

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"
)

const (
	maxTitleRunes   = 200
	maxContentRunes = 20000
	maxTags         = 20
)

// Service manages a company's knowledge base.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Input carries the editable chunk fields.
type Input struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Category string            `json:"category"`
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata"`
}

func (in Input) normalize() (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Category = strings.TrimSpace(in.Category)
	if in.Content == "" {
		return in, apperr.Validation("validation_error", "content is required")
	}
	if in.Title == "" {
		in.Title = firstLine(in.Content)
	}
	if utf8.RuneCountInString(in.Title) > maxTitleRunes {
		return in, apperr.Validation("validation_error", "title is too long")
	}
	if utf8.RuneCountInString(in.Content) > maxContentRunes {
		return in, apperr.Validation("validation_error", "content is too long")
	}

	tags := make([]string, 0, len(in.Tags))
	seen := make(map[string]bool, len(in.Tags))
	for _, t := range in.Tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	if len(tags) > maxTags {
		return in, apperr.Validation("validation_error", "too many tags")
	}
	in.Tags = tags

	meta := make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		if k = strings.TrimSpace(k); k != "" {
			meta[k] = v
		}
	}
	in.Metadata = meta
	return in, nil
}

// firstLine derives a title from content that came without one.
func firstLine(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) > 30 {
		line = string([]rune(line)[:30])
	}
	return line
}

func (s *Service) Create(ctx context.Context, companyID, userID string, in Input) (Chunk, error) {
	in, err := in.normalize()
	if err != nil {
		return Chunk{}, err
	}
	now := s.now()
	c := Chunk{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Title:     in.Title,
		Content:   in.Content,
		Category:  in.Category,
		Tags:      in.Tags,
		Metadata:  in.Metadata,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return Chunk{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (Chunk, error) {
	if strings.TrimSpace(id) == "" {
		return Chunk{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID string, filter ListFilter) ([]Chunk, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Tag = strings.TrimSpace(filter.Tag)
	filter.Query = strings.TrimSpace(filter.Query)
	return s.Repo.List(ctx, companyID, filter)
}

func (s *Service) Update(ctx context.Context, companyID, id string, in Input) (Chunk, error) {
	in, err := in.normalize()
	if err != nil {
		return Chunk{}, err
	}
	c, err := s.Get(ctx, companyID, id)
	if err != nil {
		return Chunk{}, err
	}
	c.Title = in.Title
	c.Content = in.Content
	c.Category = in.Category
	c.Tags = in.Tags
	c.Metadata = in.Metadata
	c.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, c); err != nil {
		return Chunk{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id string) error {
	return s.Repo.SoftDelete(ctx, companyID, id)
}
