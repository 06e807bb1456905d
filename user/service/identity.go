package service

import (
	"context"

	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/user/repository"
)

// UnknownUser is the display name used when a sender has no profile
const UnknownUser = "Unknown User"

// IdentityResolver maps sender ids to display names. Lookup failures are
// recovered locally with the UnknownUser fallback and never propagated.
type IdentityResolver struct {
	repo repository.UserRepository
	log  *logger.Logger
}

func NewIdentityResolver(repo repository.UserRepository, log *logger.Logger) *IdentityResolver {
	return &IdentityResolver{repo: repo, log: log}
}

// ResolveNames resolves a set of sender ids in a single batched query.
// Every requested id is present in the result; ids without a profile map
// to UnknownUser. Resolution is eager per call and never cached.
func (r *IdentityResolver) ResolveNames(ctx context.Context, senderIDs []string) map[string]string {
	names := make(map[string]string, len(senderIDs))
	if len(senderIDs) == 0 {
		return names
	}

	unique := make([]string, 0, len(senderIDs))
	seen := make(map[string]struct{}, len(senderIDs))
	for _, id := range senderIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, err := r.repo.GetByIDs(ctx, unique)
	if err != nil {
		r.log.LogError(err, "identity lookup failed, using fallback names", "sender_count", len(unique))
		for _, id := range unique {
			names[id] = UnknownUser
		}
		return names
	}

	for _, u := range users {
		names[u.ID] = u.Name
	}
	for _, id := range unique {
		if _, ok := names[id]; !ok {
			names[id] = UnknownUser
		}
	}
	return names
}

// ResolveName resolves a single sender id; used on the realtime path where
// events arrive one at a time.
func (r *IdentityResolver) ResolveName(ctx context.Context, senderID string) string {
	if senderID == "" {
		return UnknownUser
	}

	u, err := r.repo.GetByID(ctx, senderID)
	if err != nil {
		r.log.Warn("identity lookup failed, using fallback name", "sender_id", senderID, "error", err.Error())
		return UnknownUser
	}
	if u.Name == "" {
		return UnknownUser
	}
	return u.Name
}
