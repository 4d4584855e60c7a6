package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mediagate/media-api/internal/auth"
)

var (
	ErrNotFound     = errors.New("media not found")
	ErrInvalidInput = errors.New("invalid media input")
	ErrInvalidID    = errors.New("invalid media id")
	allowedTypes    = map[string]struct{}{TypeVideo: {}, TypeAudio: {}}
)

// StreamTokens issues and verifies playback tokens. *auth.TokenService
// satisfies it.
type StreamTokens interface {
	IssueStream(mediaID string, ttl time.Duration) (string, time.Time, error)
	VerifyStream(token string) (auth.StreamClaims, error)
}

type ServiceConfig struct {
	BaseURL string
}

type Service struct {
	store   Store
	tokens  StreamTokens
	baseURL string
	nowFunc func() time.Time
	newID   func() string
}

func NewService(store Store, tokens StreamTokens, cfg ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("media store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("stream token service is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}
	return &Service{
		store:   store,
		tokens:  tokens,
		baseURL: base,
		nowFunc: time.Now,
		newID:   func() string { return primitive.NewObjectID().Hex() },
	}, nil
}

// ParseID reports ErrInvalidID unless id is a 24-hex object id.
func ParseID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a Asset) (Asset, error) {
	if err := validate(a); err != nil {
		return Asset{}, err
	}
	a.ID = s.newID()
	a.Title = strings.TrimSpace(a.Title)
	a.FileURL = strings.TrimSpace(a.FileURL)

	if err := s.store.CreateAsset(ctx, a); err != nil {
		return Asset{}, fmt.Errorf("create media asset: %w", err)
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Asset, error) {
	if err := ParseID(id); err != nil {
		return Asset{}, err
	}
	a, err := s.store.GetAsset(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("get media asset: %w", err)
	}
	return a, nil
}

// StreamURL returns a playback link for an existing asset, valid for the
// default stream token lifetime.
func (s *Service) StreamURL(ctx context.Context, id string) (StreamLink, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return StreamLink{}, err
	}
	token, _, err := s.tokens.IssueStream(a.ID, auth.DefaultStreamTTL)
	if err != nil {
		return StreamLink{}, err
	}
	return StreamLink{
		URL:              s.baseURL + "/media/stream?token=" + url.QueryEscape(token),
		ExpiresInSeconds: int(auth.DefaultStreamTTL / time.Second),
	}, nil
}

// Redeem resolves a stream token to the asset it grants.
func (s *Service) Redeem(ctx context.Context, token string) (Asset, error) {
	claims, err := s.tokens.VerifyStream(token)
	if err != nil {
		return Asset{}, auth.ErrInvalidToken
	}
	return s.Get(ctx, claims.MediaID)
}

// RecordView appends one view for an existing asset. The existence check and
// the append are separate store calls and are not atomic.
func (s *Service) RecordView(ctx context.Context, id, viewerIP string) (View, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return View{}, err
	}
	v := View{
		ID:         s.newID(),
		MediaID:    id,
		ViewedByIP: viewerIP,
		Timestamp:  s.nowFunc().UTC(),
	}
	if err := s.store.AppendView(ctx, v); err != nil {
		return View{}, fmt.Errorf("append media view: %w", err)
	}
	return v, nil
}

func (s *Service) Analytics(ctx context.Context, id string) (Analytics, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return Analytics{}, err
	}
	views, err := s.store.ListViews(ctx, id)
	if err != nil {
		return Analytics{}, fmt.Errorf("list media views: %w", err)
	}
	return Aggregate(views), nil
}

func validate(a Asset) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(a.FileURL) == "" {
		return fmt.Errorf("%w: file_url is required", ErrInvalidInput)
	}
	if _, ok := allowedTypes[a.Type]; !ok {
		return fmt.Errorf("%w: type must be video or audio", ErrInvalidInput)
	}
	return nil
}
