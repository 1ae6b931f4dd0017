// Package session mirrors the auth provider's current session into process state and
// local persistence, and merges the signed-in identity with its profile attributes.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"gigmarket/internal/authctx"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
	"gigmarket/internal/service"
)

// Event names an auth state transition.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"

	// EventRestored announces the persisted user snapshot while the live session is
	// still being validated. It is never emitted after a live transition.
	EventRestored Event = "RESTORED"
)

// DefaultMinRefreshInterval bounds how often Run refreshes when the provider issues
// tokens that expire within the refresh margin.
const DefaultMinRefreshInterval = 10 * time.Second

var (
	// ErrNotSignedIn is returned by operations that need a session when there is none.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrConfirmationPending is returned by SignUp when the provider wants the email
	// address confirmed before issuing a session.
	ErrConfirmationPending = errors.New("email confirmation pending")
)

// Listener receives every transition with the merged user (nil when signed out).
type Listener func(event Event, user *domain.User)

// Config wires the store to its collaborators.
type Config struct {
	Accounts      service.AccountService
	Profiles      service.ProfileService
	Snapshots     repository.SnapshotRepository
	StorageKey    string
	RefreshMargin time.Duration
	Logger        *logrus.Logger
	Now           func() time.Time

	// MinRefreshInterval is the shortest wait between two refreshes fired by Run.
	MinRefreshInterval time.Duration
}

// Store holds the current session and merged user.
type Store struct {
	accounts  service.AccountService
	profiles  service.ProfileService
	snapshots repository.SnapshotRepository
	cache     *ProfileCache
	tokenKey  string
	userKey   string
	margin    time.Duration
	minWait   time.Duration
	logger    *logrus.Entry
	now       func() time.Time

	// transMu orders transitions and the snapshot announcement so listeners see
	// them in the order they were applied.
	transMu sync.Mutex

	mu      sync.RWMutex
	session *domain.AuthSession
	user    *domain.User
	live    bool

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int

	wake chan struct{}
}

func NewStore(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	key := cfg.StorageKey
	if key == "" {
		key = "gigmarket"
	}
	margin := cfg.RefreshMargin
	if margin <= 0 {
		margin = time.Minute
	}
	minWait := cfg.MinRefreshInterval
	if minWait <= 0 {
		minWait = DefaultMinRefreshInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		accounts:  cfg.Accounts,
		profiles:  cfg.Profiles,
		snapshots: cfg.Snapshots,
		cache:     NewProfileCache(),
		tokenKey:  key + "-auth-token",
		userKey:   key + "-user",
		margin:    margin,
		minWait:   minWait,
		logger:    logger.WithField("component", "session"),
		now:       now,
		listeners: make(map[int]Listener),
		wake:      make(chan struct{}, 1),
	}
}

// Cache exposes the profile memo cache.
func (s *Store) Cache() *ProfileCache {
	return s.cache
}

// Init restores state. The persisted user snapshot is read while the persisted tokens
// are validated against the provider. A snapshot belonging to the persisted session
// becomes the current user and is announced as RESTORED until the live answer lands;
// the live answer is emitted as INITIAL_SESSION or SIGNED_OUT.
func (s *Store) Init(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		s.loadSnapshot(ctx)
		return nil
	})
	g.Go(func() error {
		return s.resolveLive(ctx)
	})
	return g.Wait()
}

func (s *Store) loadSnapshot(ctx context.Context) {
	tokens, err := s.readTokens(ctx)
	if err != nil || tokens == nil {
		return
	}
	user := s.readUserSnapshot(ctx, tokens.Identity.ID)
	if user == nil {
		return
	}

	s.transMu.Lock()
	defer s.transMu.Unlock()
	s.mu.Lock()
	if s.live {
		s.mu.Unlock()
		return
	}
	s.user = user
	s.mu.Unlock()

	s.logger.WithField("user_id", user.ID).Debug("restored user snapshot")
	s.notify(EventRestored, user)
}

// readUserSnapshot returns the persisted user when it belongs to userID.
func (s *Store) readUserSnapshot(ctx context.Context, userID string) *domain.User {
	raw, err := s.snapshots.Get(ctx, s.userKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.WithError(err).Warn("read user snapshot")
		}
		return nil
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		s.logger.WithError(err).Warn("decode user snapshot")
		return nil
	}
	if userID == "" || user.ID != userID {
		return nil
	}
	return &user
}

func (s *Store) resolveLive(ctx context.Context) error {
	persisted, err := s.readTokens(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("read persisted session")
	}
	if persisted == nil {
		return s.transition(ctx, EventSignedOut, nil)
	}

	if persisted.Expired(s.now(), s.margin) {
		refreshed, err := s.accounts.Refresh(ctx, persisted.RefreshToken)
		if err != nil {
			return s.liveFailure(ctx, persisted, fmt.Errorf("refresh persisted session: %w", err))
		}
		return s.transition(ctx, EventInitialSession, refreshed)
	}

	identity, err := s.accounts.Identity(ctx, persisted.AccessToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			refreshed, rerr := s.accounts.Refresh(ctx, persisted.RefreshToken)
			if rerr == nil {
				return s.transition(ctx, EventInitialSession, refreshed)
			}
			err = rerr
		}
		return s.liveFailure(ctx, persisted, fmt.Errorf("validate persisted session: %w", err))
	}
	persisted.Identity = *identity
	return s.transition(ctx, EventInitialSession, persisted)
}

// liveFailure signs out on rejected credentials. Other failures keep the persisted
// session unverified and surface the error.
func (s *Store) liveFailure(ctx context.Context, persisted *domain.AuthSession, err error) error {
	s.logger.WithError(err).Warn("live session unavailable")
	if errors.Is(err, service.ErrInvalidCredentials) {
		return errors.Join(err, s.transition(ctx, EventSignedOut, nil))
	}
	return errors.Join(err, s.transition(ctx, EventInitialSession, persisted))
}

// SignIn authenticates and emits SIGNED_IN. A failed profile write is applied as is:
// the session is kept and the error is returned with the merged user.
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	sess, err := s.accounts.SignIn(ctx, email, password)
	if sess == nil {
		s.logger.WithError(err).WithField("email", email).Warn("sign in failed")
		return nil, err
	}
	terr := s.transition(ctx, EventSignedIn, sess)
	if err != nil {
		s.logger.WithError(err).Warn("signed in with inconsistent profile")
	}
	return s.Current(), errors.Join(err, terr)
}

// SignUp registers and, when the provider issues a session right away, emits SIGNED_IN.
func (s *Store) SignUp(ctx context.Context, in service.SignUpInput) (*domain.User, error) {
	sess, _, err := s.accounts.SignUp(ctx, in)
	if sess == nil {
		if err != nil {
			s.logger.WithError(err).WithField("email", in.Email).Warn("sign up failed")
			return nil, err
		}
		return nil, ErrConfirmationPending
	}
	terr := s.transition(ctx, EventSignedIn, sess)
	if err != nil {
		s.logger.WithError(err).Warn("signed up with inconsistent profile")
	}
	return s.Current(), errors.Join(err, terr)
}

// SignOut revokes the session with the provider and then clears local state, the
// profile cache and the snapshots whatever the provider answered.
func (s *Store) SignOut(ctx context.Context) error {
	var err error
	if sess := s.Session(); sess != nil {
		if err = s.accounts.SignOut(ctx, sess.AccessToken); err != nil {
			s.logger.WithError(err).Warn("provider sign out failed")
		}
	}
	s.cache.Clear()
	return errors.Join(err, s.transition(ctx, EventSignedOut, nil))
}

// Refresh exchanges the refresh token and emits TOKEN_REFRESHED.
func (s *Store) Refresh(ctx context.Context) error {
	current := s.Session()
	if current == nil {
		return ErrNotSignedIn
	}
	sess, err := s.accounts.Refresh(ctx, current.RefreshToken)
	if err != nil {
		s.logger.WithError(err).Warn("refresh session")
		if errors.Is(err, service.ErrInvalidCredentials) {
			s.cache.Clear()
			return errors.Join(err, s.transition(ctx, EventSignedOut, nil))
		}
		return err
	}
	return s.transition(ctx, EventTokenRefreshed, sess)
}

// Run refreshes the session ahead of expiry until ctx is done. A failed refresh is not
// retried; the next transition re-arms the timer. Consecutive refreshes are at least
// MinRefreshInterval apart.
func (s *Store) Run(ctx context.Context) error {
	armed := true
	var lastFired time.Time
	for {
		var fire <-chan time.Time
		var timer *time.Timer
		if wait, ok := s.untilRefresh(lastFired); ok && armed {
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-s.wake:
			armed = true
		case <-fire:
			lastFired = s.now()
			if err := s.Refresh(ctx); err != nil {
				armed = false
			}
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (s *Store) untilRefresh(lastFired time.Time) (time.Duration, bool) {
	sess := s.Session()
	if sess == nil || sess.ExpiresAt.IsZero() {
		return 0, false
	}
	now := s.now()
	wait := sess.ExpiresAt.Add(-s.margin).Sub(now)
	if wait < 0 {
		wait = 0
	}
	if !lastFired.IsZero() {
		if floor := lastFired.Add(s.minWait).Sub(now); wait < floor {
			wait = floor
		}
	}
	return wait, true
}

// UpdateProfile writes the patch as the signed-in user and emits USER_UPDATED.
func (s *Store) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	sess := s.Session()
	if sess == nil {
		return nil, ErrNotSignedIn
	}
	profile, err := s.profiles.Update(authctx.WithAccessToken(ctx, sess.AccessToken), sess.Identity.ID, patch)
	if err != nil {
		s.logger.WithError(err).Warn("update profile")
		return nil, err
	}
	s.cache.Put(*profile)
	if err := s.transition(ctx, EventUserUpdated, sess); err != nil {
		return s.Current(), err
	}
	return s.Current(), nil
}

// Current returns a copy of the merged user, nil when signed out.
func (s *Store) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Session returns a copy of the current auth session, nil when signed out.
func (s *Store) Session() *domain.AuthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

// AuthContext returns ctx carrying the current access token.
func (s *Store) AuthContext(ctx context.Context) context.Context {
	if sess := s.Session(); sess != nil {
		ctx = authctx.WithAccessToken(ctx, sess.AccessToken)
		ctx = authctx.WithUserID(ctx, sess.Identity.ID)
	}
	return ctx
}

// Subscribe registers a listener and returns a function removing it.
func (s *Store) Subscribe(listener Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// transition applies a new session (nil for signed out): profile lookup through the
// cache, merge, persist, notify. When the profile cannot be fetched the last known
// user for the same ID is kept instead of degrading to identity metadata.
func (s *Store) transition(ctx context.Context, event Event, sess *domain.AuthSession) error {
	s.transMu.Lock()
	defer s.transMu.Unlock()

	var errs []error
	var user *domain.User

	if sess != nil {
		profile, err := s.lookupProfile(authctx.WithAccessToken(ctx, sess.AccessToken), sess.Identity.ID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", sess.Identity.ID).Warn("fetch profile")
			errs = append(errs, err)
			user = s.lastKnownUser(ctx, sess.Identity.ID)
		}
		if user == nil {
			merged := domain.MergeUser(sess.Identity, profile)
			user = &merged
		}
	}

	s.mu.Lock()
	s.live = true
	s.session = sess
	s.user = user
	s.mu.Unlock()

	if err := s.persist(ctx, sess, user); err != nil {
		s.logger.WithError(err).Warn("persist session")
		errs = append(errs, err)
	}

	s.logger.WithField("event", event).Debug("auth state changed")
	s.notify(event, user)
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return errors.Join(errs...)
}

func (s *Store) lastKnownUser(ctx context.Context, userID string) *domain.User {
	if current := s.Current(); current != nil && current.ID == userID {
		return current
	}
	return s.readUserSnapshot(ctx, userID)
}

func (s *Store) lookupProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if p, ok := s.cache.Get(userID); ok {
		return p, nil
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.cache.Put(*profile)
	return profile, nil
}

func (s *Store) persist(ctx context.Context, sess *domain.AuthSession, user *domain.User) error {
	if sess == nil {
		return errors.Join(
			s.snapshots.Delete(ctx, s.tokenKey),
			s.snapshots.Delete(ctx, s.userKey),
		)
	}
	tokens, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	snapshot, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return errors.Join(
		s.snapshots.Put(ctx, s.tokenKey, tokens),
		s.snapshots.Put(ctx, s.userKey, snapshot),
	)
}

func (s *Store) readTokens(ctx context.Context) (*domain.AuthSession, error) {
	raw, err := s.snapshots.Get(ctx, s.tokenKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var sess domain.AuthSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) notify(event Event, user *domain.User) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		var u *domain.User
		if user != nil {
			cp := *user
			u = &cp
		}
		l(event, u)
	}
}

// TokenSink receives the access token whenever the session changes hands.
type TokenSink interface {
	SetAuth(token string) error
}

// ForwardTokens pushes the current access token to sink after every sign in or
// refresh. The returned function stops forwarding.
func (s *Store) ForwardTokens(sink TokenSink) func() {
	return s.Subscribe(func(event Event, _ *domain.User) {
		switch event {
		case EventSignedIn, EventTokenRefreshed, EventInitialSession:
		default:
			return
		}
		sess := s.Session()
		if sess == nil {
			return
		}
		if err := sink.SetAuth(sess.AccessToken); err != nil {
			s.logger.WithError(err).WithField("event", event).Warn("forward access token")
		}
	})
}
