package reconcile

// ResolveRequester never returns "" as long as DefaultUserID is set.
func (s *Setting) ResolveRequester(login string) string {
	if id, ok := s.UserIDs[login]; ok {
		return id
	}
	return s.DefaultUserID
}

// ResolveOwners maps each assignee to a member id, keeping the first
// occurrence of each id.
func (s *Setting) ResolveOwners(logins []string) []string {
	owners := []string{}
	seen := make(map[string]struct{}, len(logins))
	for _, login := range logins {
		id := s.ResolveRequester(login)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		owners = append(owners, id)
	}
	return owners
}

// ResolveWorkflowState returns false for actions that should not move the story.
func (s *Setting) ResolveWorkflowState(action string) (int64, bool) {
	id, ok := s.ActionStateIDs[action]
	return id, ok
}
