package testsupport

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/burenotti/wearable_backend/internal/domain"
	"github.com/burenotti/wearable_backend/internal/domain/activity"
	"github.com/burenotti/wearable_backend/internal/domain/goal"
	"github.com/burenotti/wearable_backend/internal/domain/sensor"
	"github.com/burenotti/wearable_backend/internal/domain/session"
)

func inRange(t time.Time, from, to *time.Time) bool {
	return (from == nil || !t.Before(*from)) && (to == nil || !t.After(*to))
}

func paginate[T any](items []T, page domain.Page) domain.Paginated[T] {
	res := domain.Paginated[T]{Total: len(items), Limit: page.Limit, Offset: page.Offset}
	start := min(page.Offset, len(items))
	end := len(items)
	if page.Limit > 0 {
		end = min(start+page.Limit, len(items))
	}
	res.Items = items[start:end]
	return res
}

// Store is an in-memory replacement for the postgres storages.
// One Store can serve every storage interface of the services.
type Store struct {
	Seen
	mu         sync.Mutex
	sessions   map[string]*session.Session
	samples    []*sensor.Sample
	activities map[string]*activity.Activity
	goals      map[string]*goal.Goal
	Users      map[string]bool
	BatchError error
}

func NewStore() *Store {
	return &Store{
		sessions:   make(map[string]*session.Session),
		activities: make(map[string]*activity.Activity),
		goals:      make(map[string]*goal.Goal),
		Users:      make(map[string]bool),
	}
}

func (s *Store) Close() error {
	return nil
}

type SessionStore struct{ *Store }

func (s SessionStore) Add(ctx context.Context, ses *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[ses.SessionID]; ok {
		return session.ErrSessionExists
	}
	s.sessions[ses.SessionID] = ses
	s.Mark(ses)
	return nil
}

func (s SessionStore) GetByID(ctx context.Context, sessionID string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ses, ok := s.sessions[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	s.Mark(ses)
	return ses, nil
}

func (s SessionStore) filter(f session.Filter) []*session.Session {
	var res []*session.Session
	for _, ses := range s.sessions {
		if ses.UserID != f.UserID || !inRange(ses.StartTime, f.From, f.To) {
			continue
		}
		if f.ActivityType != "" && ses.ActivityType != f.ActivityType {
			continue
		}
		res = append(res, ses)
	}
	return res
}

func (s SessionStore) List(ctx context.Context, f session.Filter, page domain.Page) (domain.Paginated[*session.Session], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.filter(f)
	slices.SortFunc(res, func(a, b *session.Session) int { return b.StartTime.Compare(a.StartTime) })
	return paginate(res, page), nil
}

func (s SessionStore) ListWithSamples(ctx context.Context, userID string, from, to time.Time) ([]*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.filter(session.Filter{UserID: userID, From: &from, To: &to})
	for _, ses := range res {
		ses.Samples = nil
		for _, sample := range s.samples {
			if sample.SessionID == ses.SessionID {
				ses.Samples = append(ses.Samples, sample)
			}
		}
	}
	return res, nil
}

func (s SessionStore) Persist(ctx context.Context, ses *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[ses.SessionID]; !ok {
		return session.ErrSessionNotFound
	}
	s.sessions[ses.SessionID] = ses
	s.Mark(ses)
	return nil
}

func (s SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return session.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	s.samples = slices.DeleteFunc(s.samples, func(x *sensor.Sample) bool { return x.SessionID == sessionID })
	return nil
}

type SampleStore struct{ *Store }

func (s SampleStore) Add(ctx context.Context, sample *sensor.Sample) error {
	_, err := s.AddBatch(ctx, []*sensor.Sample{sample})
	return err
}

func (s SampleStore) AddBatch(ctx context.Context, samples []*sensor.Sample) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.BatchError != nil {
		return 0, s.BatchError
	}
	for _, sample := range samples {
		if _, ok := s.sessions[sample.SessionID]; !ok {
			return 0, session.ErrSessionNotFound
		}
	}
	s.samples = append(s.samples, samples...)
	return len(samples), nil
}

func (s SampleStore) sorted(sessionID string, from, to *time.Time) []*sensor.Sample {
	var res []*sensor.Sample
	for _, sample := range s.samples {
		if sample.SessionID == sessionID && inRange(sample.Timestamp, from, to) {
			res = append(res, sample)
		}
	}
	slices.SortStableFunc(res, func(a, b *sensor.Sample) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.SampleID, b.SampleID)
	})
	return res
}

func (s SampleStore) List(ctx context.Context, sessionID string, from, to *time.Time, page domain.Page) (domain.Paginated[*sensor.Sample], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return paginate(s.sorted(sessionID, from, to), page), nil
}

func (s SampleStore) ListBySession(ctx context.Context, sessionID string) ([]*sensor.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(sessionID, nil, nil), nil
}

func (s SampleStore) Latest(ctx context.Context, sessionID string) (*sensor.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.sorted(sessionID, nil, nil)
	if len(res) == 0 {
		return nil, nil
	}
	return res[len(res)-1], nil
}

type ActivityStore struct{ *Store }

func (s ActivityStore) Add(ctx context.Context, a *activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.SessionID != nil {
		if _, ok := s.sessions[*a.SessionID]; !ok {
			return session.ErrSessionNotFound
		}
	}
	s.activities[a.ActivityID] = a
	s.Mark(a)
	return nil
}

func (s ActivityStore) GetByID(ctx context.Context, activityID string) (*activity.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[activityID]
	if !ok {
		return nil, activity.ErrActivityNotFound
	}
	s.Mark(a)
	return a, nil
}

func (s ActivityStore) filter(f activity.Filter) []*activity.Activity {
	var res []*activity.Activity
	for _, a := range s.activities {
		if a.UserID != f.UserID || !inRange(a.StartTime, f.From, f.To) {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		res = append(res, a)
	}
	return res
}

func (s ActivityStore) List(ctx context.Context, f activity.Filter, page domain.Page) (domain.Paginated[*activity.Activity], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.filter(f)
	slices.SortFunc(res, func(a, b *activity.Activity) int { return b.StartTime.Compare(a.StartTime) })
	return paginate(res, page), nil
}

func (s ActivityStore) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]*activity.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.filter(activity.Filter{UserID: userID, From: &from, To: &to})
	slices.SortFunc(res, func(a, b *activity.Activity) int { return a.StartTime.Compare(b.StartTime) })
	return res, nil
}

func (s ActivityStore) ListBySession(ctx context.Context, sessionID string) ([]*activity.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*activity.Activity
	for _, a := range s.activities {
		if a.SessionID != nil && *a.SessionID == sessionID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (s ActivityStore) Persist(ctx context.Context, a *activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[a.ActivityID] = a
	s.Mark(a)
	return nil
}

func (s ActivityStore) Delete(ctx context.Context, activityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[activityID]; !ok {
		return activity.ErrActivityNotFound
	}
	delete(s.activities, activityID)
	return nil
}

type GoalStore struct{ *Store }

func (s GoalStore) Add(ctx context.Context, g *goal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.GoalID] = g
	s.Mark(g)
	return nil
}

func (s GoalStore) GetByID(ctx context.Context, goalID string) (*goal.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalID]
	if !ok {
		return nil, goal.ErrGoalNotFound
	}
	s.Mark(g)
	return g, nil
}

func (s GoalStore) List(ctx context.Context, f goal.Filter) ([]*goal.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*goal.Goal
	for _, g := range s.goals {
		if g.UserID != f.UserID {
			continue
		}
		if (f.Status != "" && g.Status != f.Status) || (f.ActivityType != "" && g.ActivityType != f.ActivityType) {
			continue
		}
		res = append(res, g)
	}
	slices.SortFunc(res, func(a, b *goal.Goal) int { return a.TargetDate.Compare(b.TargetDate) })
	return res, nil
}

func (s GoalStore) Persist(ctx context.Context, g *goal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.GoalID] = g
	s.Mark(g)
	return nil
}

func (s GoalStore) Delete(ctx context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[goalID]; !ok {
		return goal.ErrGoalNotFound
	}
	delete(s.goals, goalID)
	return nil
}

type UserStore struct{ *Store }

func (s UserStore) Exists(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Users[userID], nil
}
