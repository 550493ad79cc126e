package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/store"
)

// Options tunes the write path and document recovery of BookmarkService.
type Options struct {
	// SerializeWrites routes every mutation through store.Update. When off,
	// mutations are a plain Get followed by Put and concurrent writers of
	// the same user can overwrite each other.
	SerializeWrites bool

	// StrictDocuments fails requests on an unreadable stored document
	// instead of starting over from an empty one.
	StrictDocuments bool

	// FaviconService is the base URL used to derive favicons.
	FaviconService string

	Now   func() time.Time
	NewID func(time.Time) string
}

// CreateInput is a new bookmark for UserID.
type CreateInput struct {
	UserID string
	domain.Draft
}

// ImportResult counts what happened to each imported entry.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// BookmarkService implements list/create/update/delete/search on top of one
// document per user.
type BookmarkService struct {
	store  store.DocumentStore
	logger logger.Logger
	opts   Options
}

// NewBookmarkService wires a service. Zero Options fields get defaults.
func NewBookmarkService(st store.DocumentStore, log logger.Logger, opts Options) *BookmarkService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = domain.NewID
	}
	if opts.FaviconService == "" {
		opts.FaviconService = domain.DefaultFaviconService
	}
	return &BookmarkService{store: st, logger: log, opts: opts}
}

// List returns every bookmark of userID, newest first.
func (s *BookmarkService) List(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	doc, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return doc.Bookmarks, nil
}

// Search returns the bookmarks of userID matching q.
func (s *BookmarkService) Search(ctx context.Context, userID string, q domain.Query) ([]domain.Bookmark, error) {
	doc, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.Filter(doc.Bookmarks, q), nil
}

// Groups returns the bookmarks of userID matching q, grouped by tag.
func (s *BookmarkService) Groups(ctx context.Context, userID string, q domain.Query) ([]domain.TagGroup, error) {
	bookmarks, err := s.Search(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return domain.GroupByTag(bookmarks), nil
}

// Create validates in, prepends the new record and returns it.
func (s *BookmarkService) Create(ctx context.Context, in CreateInput) (*domain.Bookmark, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, domain.Invalid(domain.MsgMissingRequired)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.opts.Now()
	b := in.Build(s.opts.NewID(now), now, s.opts.FaviconService)

	err := s.mutate(ctx, in.UserID, func(doc *domain.Document) error {
		doc.Prepend(b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("bookmark created",
		logger.String("user_id", in.UserID),
		logger.String("bookmark_id", b.ID))
	return &b, nil
}

// Update applies patch to bookmark id of userID and returns the result.
func (s *BookmarkService) Update(ctx context.Context, userID, id string, patch domain.Patch) (*domain.Bookmark, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Invalid(domain.MsgMissingUserID)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated domain.Bookmark
	err := s.mutate(ctx, userID, func(doc *domain.Document) error {
		i := doc.Find(id)
		if i < 0 {
			return domain.ErrNotFound
		}
		patch.Apply(&doc.Bookmarks[i], s.opts.Now())
		updated = doc.Bookmarks[i]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("bookmark updated",
		logger.String("user_id", userID),
		logger.String("bookmark_id", id))
	return &updated, nil
}

// Delete removes bookmark id of userID.
func (s *BookmarkService) Delete(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.Invalid(domain.MsgMissingUserID)
	}

	err := s.mutate(ctx, userID, func(doc *domain.Document) error {
		if !doc.Remove(id) {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("bookmark deleted",
		logger.String("user_id", userID),
		logger.String("bookmark_id", id))
	return nil
}

// Import adds every valid entry whose URL userID has not saved yet, in a
// single write. Entries keep their relative order at the head of the list.
func (s *BookmarkService) Import(ctx context.Context, userID string, drafts []domain.Draft) (ImportResult, error) {
	if strings.TrimSpace(userID) == "" {
		return ImportResult{}, domain.Invalid(domain.MsgMissingUserID)
	}

	now := s.opts.Now()
	candidates := make([]domain.Bookmark, 0, len(drafts))
	invalid := 0
	for _, d := range drafts {
		if err := d.Validate(); err != nil {
			invalid++
			s.logger.Debug("skipping invalid import entry",
				logger.String("url", d.URL),
				logger.Error(err))
			continue
		}
		candidates = append(candidates, d.Build(s.opts.NewID(now), now, s.opts.FaviconService))
	}

	var result ImportResult
	err := s.mutate(ctx, userID, func(doc *domain.Document) error {
		result = ImportResult{Invalid: invalid}
		fresh := make([]domain.Bookmark, 0, len(candidates))
		batch := make(map[string]struct{}, len(candidates))
		for _, b := range candidates {
			if _, dup := batch[b.URL]; dup || doc.HasURL(b.URL) {
				result.Skipped++
				continue
			}
			batch[b.URL] = struct{}{}
			fresh = append(fresh, b)
		}
		result.Imported = len(fresh)
		if len(fresh) == 0 {
			return errNothingToWrite
		}
		doc.Prepend(fresh...)
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("bookmarks imported",
		logger.String("user_id", userID),
		logger.Int("imported", result.Imported),
		logger.Int("skipped", result.Skipped),
		logger.Int("invalid", result.Invalid))
	return result, nil
}

// errNothingToWrite lets a mutation succeed without rewriting the document.
var errNothingToWrite = errors.New("nothing to write")

func (s *BookmarkService) read(ctx context.Context, userID string) (*domain.Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Invalid(domain.MsgMissingUserID)
	}
	raw, err := s.store.Get(ctx, store.DocumentKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	doc, _, err := s.decode(userID, raw)
	return doc, err
}

// mutate runs a full read-modify-write of userID's document.
func (s *BookmarkService) mutate(ctx context.Context, userID string, change func(doc *domain.Document) error) error {
	key := store.DocumentKey(userID)
	var corrupt []byte

	apply := func(current []byte) ([]byte, error) {
		corrupt = nil
		doc, recovered, err := s.decode(userID, current)
		if err != nil {
			return nil, err
		}
		if err := change(doc); err != nil {
			if errors.Is(err, errNothingToWrite) {
				return nil, nil
			}
			return nil, err
		}
		next, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode bookmarks: %w", err)
		}
		if recovered {
			corrupt = current
		}
		return next, nil
	}

	if s.opts.SerializeWrites {
		if err := s.store.Update(ctx, key, apply); err != nil {
			return fmt.Errorf("failed to save bookmarks: %w", err)
		}
	} else {
		current, err := s.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to load bookmarks: %w", err)
		}
		next, err := apply(current)
		if err != nil {
			return fmt.Errorf("failed to save bookmarks: %w", err)
		}
		if next != nil {
			if err := s.store.Put(ctx, key, next); err != nil {
				return fmt.Errorf("failed to save bookmarks: %w", err)
			}
		}
	}

	if corrupt != nil {
		s.quarantine(ctx, userID, corrupt)
	}
	return nil
}

// decode parses a stored document. recovered is true when raw was unreadable
// and an empty document was substituted.
func (s *BookmarkService) decode(userID string, raw []byte) (doc *domain.Document, recovered bool, err error) {
	if raw == nil {
		return domain.NewDocument(userID), false, nil
	}

	var parsed domain.Document
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if s.opts.StrictDocuments {
			s.logger.Error("unreadable bookmark document",
				logger.String("key", store.DocumentKey(userID)),
				logger.Int("bytes", len(raw)),
				logger.Error(err))
			return nil, false, fmt.Errorf("%w: %w", domain.ErrCorruptDocument, err)
		}
		s.logger.Warn("unreadable bookmark document, starting from an empty one",
			logger.String("key", store.DocumentKey(userID)),
			logger.Int("bytes", len(raw)),
			logger.Error(err))
		return domain.NewDocument(userID), true, nil
	}

	parsed.Normalize(userID)
	return &parsed, false, nil
}

// quarantine copies the bytes of an unreadable document aside (best effort).
func (s *BookmarkService) quarantine(ctx context.Context, userID string, raw []byte) {
	key := store.QuarantineKey(userID, s.opts.Now().UnixMilli())
	if err := s.store.Put(ctx, key, raw); err != nil {
		s.logger.Error("failed to quarantine unreadable bookmark document",
			logger.String("key", key),
			logger.Error(err))
		return
	}
	s.logger.Warn("unreadable bookmark document quarantined",
		logger.String("key", key))
}
