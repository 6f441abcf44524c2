package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/repository"
	"github.com/d60-Lab/social-graph/pkg/logger"
)

// DefaultMinAge keeps the reconciler away from thoughts whose create-thought
// run may still be in flight.
const DefaultMinAge = time.Minute

// ReconcileReport counts what one pass found and repaired.
type ReconcileReport struct {
	// DanglingThoughtRefs are thought ids listed by a user that no longer exist.
	DanglingThoughtRefs int `json:"danglingThoughtRefs"`
	// DanglingFriendRefs are friend ids that no longer exist.
	DanglingFriendRefs int `json:"danglingFriendRefs"`
	// RelinkedThoughts were unlisted and relinked to the single user whose
	// username matches and who existed when the thought was written.
	RelinkedThoughts int `json:"relinkedThoughts"`
	// UnownedThoughts are unlisted thoughts with no or several username
	// matches, or whose only match signed up after the thought was written
	// (an orphan of a deleted author). They are left alone.
	UnownedThoughts int `json:"unownedThoughts"`
}

// Reconciler 周期性修复悬挂引用（仅补偿，不回滚）
type Reconciler struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	metrics  *metrics.Collector
	minAge   time.Duration
	now      func() time.Time
}

func NewReconciler(users repository.UserRepository, thoughts repository.ThoughtRepository, m *metrics.Collector, minAge time.Duration) *Reconciler {
	if minAge < 0 {
		minAge = 0
	}
	return &Reconciler{users: users, thoughts: thoughts, metrics: m, minAge: minAge, now: time.Now}
}

// RunOnce scans both collections and repairs what it can. Every repair is
// idempotent, so overlapping passes are harmless.
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	users, err := r.users.List(ctx)
	if err != nil {
		return nil, classify(err, msgUserNotFound)
	}
	thoughts, err := r.thoughts.List(ctx)
	if err != nil {
		return nil, classify(err, msgThoughtNotFound)
	}

	userIDs := make(map[string]struct{}, len(users))
	byName := make(map[string][]*model.User)
	for _, u := range users {
		userIDs[u.ID] = struct{}{}
		byName[u.Username] = append(byName[u.Username], u)
	}
	thoughtIDs := make(map[string]struct{}, len(thoughts))
	for _, t := range thoughts {
		thoughtIDs[t.ID] = struct{}{}
	}

	rep := &ReconcileReport{}
	listed := make(map[string]struct{})
	unlinked := make(map[string]struct{})
	for _, u := range users {
		for _, tid := range u.Thoughts {
			if _, ok := thoughtIDs[tid]; ok {
				listed[tid] = struct{}{}
				continue
			}
			if _, done := unlinked[tid]; done {
				continue
			}
			owners, err := r.users.UnlinkThought(ctx, tid)
			if err != nil {
				return rep, classify(err, msgUserNotFound)
			}
			unlinked[tid] = struct{}{}
			rep.DanglingThoughtRefs += len(owners)
		}
		for _, fid := range u.Friends {
			if _, ok := userIDs[fid]; ok {
				continue
			}
			if _, err := r.users.RemoveFriend(ctx, u.ID, fid); err != nil {
				if isNotFound(err) {
					continue
				}
				return rep, classify(err, msgUserNotFound)
			}
			rep.DanglingFriendRefs++
		}
	}

	cutoff := r.now().Add(-r.minAge)
	for _, t := range thoughts {
		if _, ok := listed[t.ID]; ok {
			continue
		}
		if t.CreatedAt.After(cutoff) {
			continue
		}
		owners := byName[t.Username]
		if len(owners) != 1 || owners[0].CreatedAt.After(t.CreatedAt) {
			rep.UnownedThoughts++
			continue
		}
		if err := r.users.AppendThought(ctx, owners[0].ID, t.ID); err != nil {
			if isNotFound(err) {
				rep.UnownedThoughts++
				continue
			}
			return rep, classify(err, msgUserNotFound)
		}
		rep.RelinkedThoughts++
	}

	r.metrics.Repaired("dangling_thought_ref", rep.DanglingThoughtRefs)
	r.metrics.Repaired("dangling_friend_ref", rep.DanglingFriendRefs)
	r.metrics.Repaired("relinked_thought", rep.RelinkedThoughts)
	return rep, nil
}

// Start 启动周期修复；返回停止函数（可重复调用）。
func (r *Reconciler) Start(interval time.Duration) func(context.Context) error {
	if interval <= 0 {
		return func(context.Context) error { return nil }
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.loop(stop, interval)
	}()
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stop) })
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Reconciler) loop(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			rep, err := r.RunOnce(ctx)
			cancel()
			if err != nil {
				logger.Error("reconcile pass failed", zap.Error(err))
				continue
			}
			if *rep != (ReconcileReport{}) {
				logger.Info("reconcile pass repaired references",
					zap.Int("dangling_thought_refs", rep.DanglingThoughtRefs),
					zap.Int("dangling_friend_refs", rep.DanglingFriendRefs),
					zap.Int("relinked_thoughts", rep.RelinkedThoughts),
					zap.Int("unowned_thoughts", rep.UnownedThoughts),
				)
			}
		}
	}
}
