package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-graph/internal/repository"
	"github.com/d60-Lab/social-graph/pkg/logger"
)

type seedThought struct {
	author   string
	text     string
	reactor  string
	reaction string
}

var seedUsers = []CreateUserInput{
	{Username: "Alex_Rider", Email: "alex.rider@email.com"},
	{Username: "Emma_Stone", Email: "emma.stone@email.com"},
	{Username: "Liam_Walker", Email: "liam.walker@email.com"},
}

var seedThoughts = []seedThought{
	{
		author:   "Alex_Rider",
		text:     "Just completed my first full-stack project! Feeling accomplished! 🚀",
		reactor:  "Liam_Walker",
		reaction: "That's fantastic! Keep going! 🎉",
	},
	{
		author:   "Emma_Stone",
		text:     "Visited the Grand Canyon today! The views were absolutely surreal! 🏜️",
		reactor:  "Alex_Rider",
		reaction: "Wow, that must have been incredible!",
	},
	{
		author:   "Liam_Walker",
		text:     "Deep in thought today... What truly defines happiness? 🤔",
		reactor:  "Emma_Stone",
		reaction: "A question for the ages. Keep searching! 🌟",
	},
}

// SeedResult counts what Seed created.
type SeedResult struct {
	Users     int
	Thoughts  int
	Reactions int
}

// Seed clears both collections and loads the demo data set through the
// regular services, so seeded data obeys the same rules as API writes.
func Seed(ctx context.Context, store *repository.Store, users UserService, thoughts ThoughtService) (*SeedResult, error) {
	if err := store.Users.DeleteAll(ctx); err != nil {
		return nil, classify(err, msgUserNotFound)
	}
	if err := store.Thoughts.DeleteAll(ctx); err != nil {
		return nil, classify(err, msgThoughtNotFound)
	}
	logger.Info("database cleared")

	res := &SeedResult{}
	ids := make(map[string]string, len(seedUsers))
	for _, in := range seedUsers {
		u, err := users.Create(ctx, in)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", in.Username, err)
		}
		ids[u.Username] = u.ID
		res.Users++
	}

	for _, st := range seedThoughts {
		t, err := thoughts.Create(ctx, CreateThoughtInput{ThoughtText: st.text, UserID: ids[st.author]})
		if err != nil {
			return res, fmt.Errorf("seed thought of %s: %w", st.author, err)
		}
		res.Thoughts++
		if _, err := thoughts.AddReaction(ctx, t.ID, AddReactionInput{ReactionBody: st.reaction, Username: st.reactor}); err != nil {
			return res, fmt.Errorf("seed reaction on %s: %w", t.ID, err)
		}
		res.Reactions++
	}

	logger.Info("seeded database",
		zap.Int("users", res.Users),
		zap.Int("thoughts", res.Thoughts),
		zap.Int("reactions", res.Reactions),
	)
	return res, nil
}
