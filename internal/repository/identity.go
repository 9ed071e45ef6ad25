package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/internal/entity"
	"github.com/streamspigot/mastofeeder/pkg/kv"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// IdentityRepository stores apps, pending auth requests and sessions. A
// session is reachable by id, by feed id and by (instance, account id); the two
// indexes only point at session ids, so a dangling index reads as not found.
type IdentityRepository interface {
	GetApp(ctx context.Context, instanceURL string) (*entity.App, error)
	PutApp(ctx context.Context, app *entity.App) error

	GetAuthRequest(ctx context.Context, id string) (*entity.AuthRequest, error)
	PutAuthRequest(ctx context.Context, req *entity.AuthRequest) error
	DeleteAuthRequest(ctx context.Context, id string) error

	GetSessionByID(ctx context.Context, sessionID string) (*entity.Session, error)
	GetSessionByFeedID(ctx context.Context, feedID string) (*entity.Session, error)
	GetSessionByExternalAccount(ctx context.Context, instanceURL, accountID string) (*entity.Session, error)

	CreateSession(ctx context.Context, session *entity.Session) error
	RotateAccessToken(ctx context.Context, session *entity.Session, accessToken string) (*entity.Session, error)
	RotateFeedID(ctx context.Context, session *entity.Session, feedID string) (*entity.Session, error)
	UpdatePreferences(ctx context.Context, session *entity.Session, prefs entity.Prefs) (*entity.Session, error)
}

type identityRepository struct {
	store          kv.KV
	authRequestTTL time.Duration
}

func NewIdentityRepository(store kv.KV, authRequestTTL time.Duration) IdentityRepository {
	return &identityRepository{store: store, authRequestTTL: authRequestTTL}
}

func (r *identityRepository) GetApp(ctx context.Context, instanceURL string) (*entity.App, error) {
	return getJSON[entity.App](ctx, r.store, common.KVKeyApp(instanceURL))
}

func (r *identityRepository) PutApp(ctx context.Context, app *entity.App) error {
	return kv.PutJSON(ctx, r.store, common.KVKeyApp(app.InstanceURL), app, 0)
}

func (r *identityRepository) GetAuthRequest(ctx context.Context, id string) (*entity.AuthRequest, error) {
	return getJSON[entity.AuthRequest](ctx, r.store, common.KVKeyAuthRequest(id))
}

func (r *identityRepository) PutAuthRequest(ctx context.Context, req *entity.AuthRequest) error {
	return kv.PutJSON(ctx, r.store, common.KVKeyAuthRequest(req.ID), req, r.authRequestTTL)
}

func (r *identityRepository) DeleteAuthRequest(ctx context.Context, id string) error {
	return r.store.Delete(ctx, common.KVKeyAuthRequest(id))
}

func (r *identityRepository) GetSessionByID(ctx context.Context, sessionID string) (*entity.Session, error) {
	return getJSON[entity.Session](ctx, r.store, common.KVKeySession(sessionID))
}

func (r *identityRepository) GetSessionByFeedID(ctx context.Context, feedID string) (*entity.Session, error) {
	return r.getSessionByIndex(ctx, common.KVKeySessionFeedID(feedID))
}

func (r *identityRepository) GetSessionByExternalAccount(
	ctx context.Context, instanceURL, accountID string,
) (*entity.Session, error) {
	return r.getSessionByIndex(ctx, common.KVKeySessionAccount(instanceURL, accountID))
}

func (r *identityRepository) getSessionByIndex(ctx context.Context, indexKey string) (*entity.Session, error) {
	sessionID, err := r.store.Get(ctx, indexKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("cannot read index %s: %w", indexKey, err)
	}

	return r.GetSessionByID(ctx, sessionID)
}

// CreateSession writes both indexes before the record. A failure part way
// leaves indexes pointing at a missing record, which lookups treat as absent.
func (r *identityRepository) CreateSession(ctx context.Context, session *entity.Session) error {
	_, err := r.GetSessionByExternalAccount(ctx, session.InstanceURL, session.MastodonID)
	if err == nil {
		return ErrAlreadyExists
	}

	if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := r.store.Put(ctx, common.KVKeySessionFeedID(session.FeedID), session.SessionID, 0); err != nil {
		return fmt.Errorf("cannot write feed id index: %w", err)
	}

	accountKey := common.KVKeySessionAccount(session.InstanceURL, session.MastodonID)
	if err := r.store.Put(ctx, accountKey, session.SessionID, 0); err != nil {
		return fmt.Errorf("cannot write account index: %w", err)
	}

	return r.putSession(ctx, session)
}

func (r *identityRepository) RotateAccessToken(
	ctx context.Context, session *entity.Session, accessToken string,
) (*entity.Session, error) {
	updated := *session
	updated.AccessToken = accessToken
	if err := r.putSession(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// RotateFeedID invalidates the old feed URL first, so a crash can only lose the
// feed URL, never leave the old one working.
func (r *identityRepository) RotateFeedID(
	ctx context.Context, session *entity.Session, feedID string,
) (*entity.Session, error) {
	if err := r.store.Delete(ctx, common.KVKeySessionFeedID(session.FeedID)); err != nil {
		return nil, fmt.Errorf("cannot delete feed id index: %w", err)
	}

	if err := r.store.Put(ctx, common.KVKeySessionFeedID(feedID), session.SessionID, 0); err != nil {
		return nil, fmt.Errorf("cannot write feed id index: %w", err)
	}

	updated := *session
	updated.FeedID = feedID
	if err := r.putSession(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *identityRepository) UpdatePreferences(
	ctx context.Context, session *entity.Session, prefs entity.Prefs,
) (*entity.Session, error) {
	updated := *session
	updated.Prefs = &prefs
	if err := r.putSession(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *identityRepository) putSession(ctx context.Context, session *entity.Session) error {
	return kv.PutJSON(ctx, r.store, common.KVKeySession(session.SessionID), session, 0)
}

func getJSON[T any](ctx context.Context, store kv.KV, key string) (*T, error) {
	v, err := kv.GetJSON[T](ctx, store, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("cannot read %s: %w", key, err)
	}

	return v, nil
}
