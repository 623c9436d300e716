package editor

import "strings"

// AuthorSource says where the effective author came from.
type AuthorSource int

const (
	AuthorNone AuthorSource = iota
	AuthorAutomated
	AuthorIdentity
)

func (a AuthorSource) String() string {
	switch a {
	case AuthorAutomated:
		return "automated"
	case AuthorIdentity:
		return "identity"
	default:
		return "none"
	}
}

// IdentityResolver discovers the human author. It returns false when no identity
// is available; discovery order is the resolver's concern.
type IdentityResolver interface {
	Resolve() (string, bool)
}

// IdentityFunc adapts a plain function to IdentityResolver.
type IdentityFunc func() (string, bool)

// Resolve calls f().
func (f IdentityFunc) Resolve() (string, bool) {
	return f()
}

// Attribution is the computed answer to "who is responsible for this content".
type Attribution struct {
	Author   string
	Source   AuthorSource
	Origin   string
	Modified bool
}

// resolveAttribution computes the effective author. An unmodified automated origin
// wins; otherwise the human identity is used, discovered on demand and cached in
// the session. hostIdentity is the identity pushed by the host, tried first.
func resolveAttribution(s *session, hostIdentity string, ids IdentityResolver) Attribution {
	a := Attribution{Origin: s.automatedOrigin, Modified: s.userModified}

	if s.automatedOrigin != "" && !s.userModified {
		a.Author = s.automatedOrigin
		a.Source = AuthorAutomated
		return a
	}

	if s.resolvedIdentity == "" {
		s.resolvedIdentity = discoverIdentity(hostIdentity, ids)
	}
	if s.resolvedIdentity != "" {
		a.Author = s.resolvedIdentity
		a.Source = AuthorIdentity
	}
	return a
}

func discoverIdentity(hostIdentity string, ids IdentityResolver) string {
	if id := strings.TrimSpace(hostIdentity); id != "" {
		return id
	}
	if ids == nil {
		return ""
	}
	id, ok := ids.Resolve()
	if !ok {
		return ""
	}
	return strings.TrimSpace(id)
}
