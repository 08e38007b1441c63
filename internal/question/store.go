package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const DefaultPageSize = 100

type Repository interface {
	FindQuestionsPage(ctx context.Context, offset, limit int) ([]Question, error)
	CountQuestions(ctx context.Context) (int, error)
	UpsertQuestion(ctx context.Context, q Question) error
	DeleteQuestion(ctx context.Context, id string) (bool, error)
}

type Draft struct {
	Type    Type   `validate:"required,oneof=TRUTH DARE WYR NHIE PARANOIA"`
	Rating  Rating `validate:"required,oneof=PG PG13 R"`
	Text    string `validate:"required,max=256"`
	GuildID string `validate:"omitempty,numeric"`
}

type Patch struct {
	Type   *Type
	Rating *Rating
	Text   *string
}

func (p Patch) complete() bool {
	return p.Type != nil && p.Rating != nil && p.Text != nil
}

type Filter struct {
	Type   Type
	Rating Rating
}

// Store applies every mutation to storage first and to the index second, so
// selection can read the index without touching storage.
type Store struct {
	mu       sync.Mutex
	repo     Repository
	index    *Index
	logger   *zap.Logger
	validate *validator.Validate
	pageSize int
	newID    func() (string, error)
	now      func() time.Time
}

func NewStore(repo Repository, index *Index, logger *zap.Logger) *Store {
	return &Store{
		repo:     repo,
		index:    index,
		logger:   logger,
		validate: validator.New(),
		pageSize: DefaultPageSize,
		newID:    newID,
		now:      time.Now,
	}
}

func (s *Store) WithPageSize(size int) {
	if size > 0 {
		s.pageSize = size
	}
}

func (s *Store) WithIDGenerator(fn func() (string, error)) {
	s.newID = fn
}

func (s *Store) WithClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Index() *Index {
	return s.index
}

func (s *Store) LoadAll(ctx context.Context) error {
	total, err := s.repo.CountQuestions(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}

	questions := make([]Question, 0, total)
	for offset := 0; ; {
		page, err := s.repo.FindQuestionsPage(ctx, offset, s.pageSize)
		if err != nil {
			return fmt.Errorf("load questions at offset %d: %w", offset, err)
		}
		questions = append(questions, page...)
		if len(page) < s.pageSize {
			break
		}
		offset += len(page)
	}

	s.index.Reset(questions)
	s.logger.Info("questions loaded", zap.Int("count", len(questions)), zap.Int("expected", total))
	return nil
}

func (s *Store) Create(ctx context.Context, draft Draft) (Question, error) {
	draft.Text = strings.TrimSpace(draft.Text)
	if err := s.check(draft); err != nil {
		return Question{}, err
	}
	id, err := s.newID()
	if err != nil {
		return Question{}, fmt.Errorf("generate question id: %w", err)
	}

	q := Question{
		ID:        id,
		Type:      draft.Type,
		Rating:    draft.Rating,
		Text:      draft.Text,
		GuildID:   draft.GuildID,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.UpsertQuestion(ctx, q); err != nil {
		return Question{}, fmt.Errorf("save question: %w", err)
	}
	s.index.Put(q)
	return q, nil
}

// Update merges patch into the stored question. An unknown id is created
// from a complete patch and rejected with ErrNotFound otherwise.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.index.Get(id)
	if !ok {
		if !patch.complete() {
			return Question{}, ErrNotFound
		}
		current = Question{ID: id, CreatedAt: s.now()}
	}

	next := current
	if patch.Type != nil {
		next.Type = *patch.Type
	}
	if patch.Rating != nil {
		next.Rating = *patch.Rating
	}
	if patch.Text != nil {
		next.Text = strings.TrimSpace(*patch.Text)
	}
	if err := s.check(Draft{Type: next.Type, Rating: next.Rating, Text: next.Text, GuildID: next.GuildID}); err != nil {
		return Question{}, err
	}

	if err := s.repo.UpsertQuestion(ctx, next); err != nil {
		return Question{}, fmt.Errorf("save question: %w", err)
	}
	s.index.Put(next)
	return next, nil
}

func (s *Store) Delete(ctx context.Context, id string) (Question, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.repo.DeleteQuestion(ctx, id)
	if err != nil {
		return Question{}, false, fmt.Errorf("delete question: %w", err)
	}
	q, indexed := s.index.Remove(id)
	if !deleted && !indexed {
		return Question{}, false, nil
	}
	if !indexed {
		q = Question{ID: id}
	}
	return q, true, nil
}

func (s *Store) GetByID(id string) (Question, bool) {
	return s.index.Get(id)
}

func (s *Store) ListCustom(guildID string, filter Filter) []Question {
	return lo.Filter(s.index.Custom(guildID), func(q Question, _ int) bool {
		if filter.Type != "" && q.Type != filter.Type {
			return false
		}
		return filter.Rating == "" || q.Rating == filter.Rating
	})
}

func (s *Store) Import(ctx context.Context, drafts []Draft) (int, error) {
	for i, draft := range drafts {
		if _, err := s.Create(ctx, draft); err != nil {
			return i, fmt.Errorf("import question %d: %w", i+1, err)
		}
	}
	return len(drafts), nil
}

func (s *Store) check(draft Draft) error {
	err := s.validate.Struct(draft)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: describeTag(fe)}
	}
	return err
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "numeric":
		return "must be a snowflake"
	default:
		return fe.Tag()
	}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
