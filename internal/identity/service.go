package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"hamarabooks/internal/statestore"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// flowTTL bounds how long a federated sign-in may stay pending.
const flowTTL = 10 * time.Minute

// State is what the service keeps per client.
type State struct {
	Session *Session `json:"session,omitempty"`
	Flow    *Flow    `json:"flow,omitempty"`
	// RedirectCompleted is set when a redirect sign-in finishes and cleared by
	// the next ObserveSession, which replays it.
	RedirectCompleted bool `json:"redirect_completed,omitempty"`
}

// Flow is a federated sign-in waiting for its callback.
type Flow struct {
	Mode      FlowMode  `json:"mode"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

func (st State) empty() bool {
	return st.Session == nil && st.Flow == nil && !st.RedirectCompleted
}

type Service struct {
	provider  Provider
	store     statestore.Store[State]
	locks     *statestore.KeyedMutex
	refresh   singleflight.Group
	observers *observers
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(provider Provider, store statestore.Store[State], logger *zap.Logger) *Service {
	s := &Service{
		provider: provider,
		store:    store,
		locks:    statestore.NewKeyedMutex(),
		logger:   logger,
		now:      time.Now,
	}
	s.observers = newObservers(func(clientID string, ev Event) {
		logger.Warn("session event dropped", zap.String("client_id", clientID), zap.String("event", string(ev.Type)))
	})
	return s
}

// SignUp creates a password account. The password must be at least
// MinPasswordLength characters and match its confirmation.
func (s *Service) SignUp(ctx context.Context, clientID, email, password, confirm string) (*Session, error) {
	if password != confirm {
		return nil, newError(KindPasswordMismatch, nil)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, newError(KindPasswordTooShort, nil)
	}

	sess, err := s.provider.SignUp(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, clientID, sess, false); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) SignIn(ctx context.Context, clientID, email, password string) (*Session, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, newError(KindPasswordTooShort, nil)
	}

	sess, err := s.provider.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, clientID, sess, false); err != nil {
		return nil, err
	}
	return sess, nil
}

// SignInFederated starts a Google sign-in in the flow suited to env.
func (s *Service) SignInFederated(ctx context.Context, clientID string, env Environment) (*FederatedStart, error) {
	return s.startFlow(ctx, clientID, ChooseFlow(env))
}

// FallbackToRedirect restarts a failed popup sign-in as a redirect. Only a
// blocked or closed popup falls back; any other reason is returned as its error.
func (s *Service) FallbackToRedirect(ctx context.Context, clientID string, reason Kind) (*FederatedStart, error) {
	if reason != KindPopupBlocked && reason != KindPopupClosed {
		return nil, newError(reason, errors.New("popup sign-in failed"))
	}
	s.logger.Info("federated sign-in falling back to redirect",
		zap.String("client_id", clientID), zap.String("reason", string(reason)))
	return s.startFlow(ctx, clientID, FlowRedirect)
}

func (s *Service) startFlow(ctx context.Context, clientID string, mode FlowMode) (*FederatedStart, error) {
	auth, err := s.provider.StartFederated(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(clientID)
	defer unlock()

	st, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	st.Flow = &Flow{Mode: mode, SessionID: auth.SessionID, StartedAt: s.now()}
	if err := s.save(ctx, clientID, st); err != nil {
		return nil, err
	}
	return &FederatedStart{Mode: mode, AuthURI: auth.AuthURI}, nil
}

// CompleteFederated exchanges the provider callback for a session. A redirect
// flow also leaves a pending redirect result for the next observer.
func (s *Service) CompleteFederated(ctx context.Context, clientID, callbackURL string) (*Session, FlowMode, error) {
	flow, err := s.takeFlow(ctx, clientID)
	if err != nil {
		return nil, "", err
	}

	sess, err := s.provider.CompleteFederated(ctx, callbackURL, flow.SessionID)
	if err != nil {
		return nil, flow.Mode, err
	}
	redirect := flow.Mode == FlowRedirect
	if err := s.establish(ctx, clientID, sess, redirect); err != nil {
		return nil, flow.Mode, err
	}
	return sess, flow.Mode, nil
}

func (s *Service) takeFlow(ctx context.Context, clientID string) (*Flow, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	st, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	flow := st.Flow
	if flow == nil {
		return nil, newError(KindCancelled, errors.New("no federated sign-in in progress"))
	}
	st.Flow = nil
	if err := s.save(ctx, clientID, st); err != nil {
		return nil, err
	}
	if s.now().Sub(flow.StartedAt) > flowTTL {
		return nil, newError(KindCancelled, errors.New("federated sign-in expired"))
	}
	return flow, nil
}

func (s *Service) establish(ctx context.Context, clientID string, sess *Session, redirect bool) error {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	st, err := s.load(ctx, clientID)
	if err != nil {
		return err
	}
	st.Session = sess
	st.Flow = nil
	st.RedirectCompleted = redirect
	if err := s.save(ctx, clientID, st); err != nil {
		return err
	}

	s.logger.Info("session signed in",
		zap.String("client_id", clientID),
		zap.String("uid", sess.UID),
		zap.String("provider", sess.ProviderID),
		zap.Bool("redirect", redirect),
	)
	s.observers.publish(clientID, Event{Type: EventSignedIn, Session: sess, Redirect: redirect})
	return nil
}

// SignOut drops the client's session. Signing out without a session is a no-op.
func (s *Service) SignOut(ctx context.Context, clientID string) error {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	st, err := s.load(ctx, clientID)
	if err != nil {
		return err
	}
	if st.Session == nil {
		return nil
	}
	uid := st.Session.UID
	if err := s.store.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("session signed out", zap.String("client_id", clientID), zap.String("uid", uid))
	s.observers.publish(clientID, Event{Type: EventSignedOut})
	return nil
}

// Current returns the client's session, refreshing it first when the ID token
// has expired. A nil session means signed out.
func (s *Service) Current(ctx context.Context, clientID string) (*Session, error) {
	st, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if st.Session == nil {
		return nil, nil
	}
	if !st.Session.Expired(s.now()) {
		return st.Session, nil
	}

	sess, err := s.Refresh(ctx, clientID)
	if errors.Is(err, ErrNotSignedIn) {
		return nil, nil
	}
	return sess, err
}

// Refresh renews the ID token. Concurrent refreshes for one client share a
// single provider call, which outlives a caller that gives up. A rejected
// refresh token signs the client out.
func (s *Service) Refresh(ctx context.Context, clientID string) (*Session, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.refresh.Do(clientID, func() (any, error) {
		return s.refreshSession(shared, clientID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (s *Service) refreshSession(ctx context.Context, clientID string) (*Session, error) {
	st, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if st.Session == nil {
		return nil, ErrNotSignedIn
	}
	uid := st.Session.UID

	tokens, err := s.provider.Refresh(ctx, st.Session.RefreshToken)
	if err != nil {
		if k := KindOf(err); k == KindInvalidCredential || k == KindUserNotFound {
			s.logger.Info("session refresh rejected", zap.String("client_id", clientID), zap.String("uid", uid))
			if err := s.SignOut(ctx, clientID); err != nil {
				return nil, err
			}
			return nil, ErrNotSignedIn
		}
		return nil, err
	}

	unlock := s.locks.Lock(clientID)
	defer unlock()

	st, err = s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if st.Session == nil || st.Session.UID != uid {
		return nil, ErrNotSignedIn
	}
	sess := *st.Session
	sess.IDToken = tokens.IDToken
	if tokens.RefreshToken != "" {
		sess.RefreshToken = tokens.RefreshToken
	}
	sess.ExpiresAt = tokens.ExpiresAt
	st.Session = &sess
	if err := s.save(ctx, clientID, st); err != nil {
		return nil, err
	}

	s.logger.Debug("session refreshed", zap.String("client_id", clientID), zap.String("uid", uid))
	s.observers.publish(clientID, Event{Type: EventRefreshed, Session: &sess})
	return &sess, nil
}

// ObserveSession registers callback as the client's only session observer,
// replacing any earlier one. The callback runs once per transition. If a
// redirect sign-in completed since the last subscription it also runs
// immediately with that sign-in.
func (s *Service) ObserveSession(ctx context.Context, clientID string, callback func(Event)) (*Subscription, error) {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	st, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	pending := st.RedirectCompleted && st.Session != nil
	if st.RedirectCompleted {
		st.RedirectCompleted = false
		if err := s.save(ctx, clientID, st); err != nil {
			return nil, err
		}
	}

	sub := s.observers.subscribe(clientID, callback)
	if pending {
		s.observers.publish(clientID, Event{Type: EventSignedIn, Session: st.Session, Redirect: true})
	}
	return sub, nil
}

func (s *Service) load(ctx context.Context, clientID string) (State, error) {
	st, err := s.store.Get(ctx, clientID)
	if errors.Is(err, statestore.ErrNotFound) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load identity state: %w", err)
	}
	return st, nil
}

func (s *Service) save(ctx context.Context, clientID string, st State) error {
	var err error
	if st.empty() {
		err = s.store.Delete(ctx, clientID)
	} else {
		err = s.store.Set(ctx, clientID, st)
	}
	if err != nil {
		return fmt.Errorf("save identity state: %w", err)
	}
	return nil
}
