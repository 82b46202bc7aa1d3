// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "sync"

// SharedTargets tracks which rendering context produces each offscreen
// target. The first context to claim a target owns it; every other
// context receives an alias, so the target is processed once per frame
// no matter how many surfaces reference it.
//
// Aliases resolve to a published copy of the owner's stream, never to
// the buffer the owner sorts into. The owner keeps rewriting its own
// buffer every frame while other contexts draw the copy, and a published
// copy is never modified after Claim returns.
//
// SharedTargets is safe for concurrent use.
type SharedTargets struct {
	mu     sync.Mutex
	owners map[*OffscreenTarget]sharedOwner
}

type sharedOwner struct {
	context   int
	published *RenderInstructions
}

// NewSharedTargets creates an empty registry.
func NewSharedTargets() *SharedTargets {
	return &SharedTargets{owners: make(map[*OffscreenTarget]sharedOwner)}
}

// Lookup returns an alias of the published instructions for target when
// a context other than context owns it.
func (s *SharedTargets) Lookup(target *OffscreenTarget, context int) (*RenderInstructions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[target]
	if !ok || o.context == context {
		return nil, false
	}
	return AliasOf(o.published), true
}

// Claim registers context as the producer of target and publishes a copy
// of instr for the other contexts. The owner keeps drawing instr itself.
// When another context already owns the target, Claim returns an alias
// of the published copy instead of instr.
func (s *SharedTargets) Claim(target *OffscreenTarget, context int, instr *RenderInstructions) *RenderInstructions {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.owners[target]; ok && o.context != context {
		return AliasOf(o.published)
	}
	s.owners[target] = sharedOwner{context: context, published: instr.Clone()}
	return instr
}

// Release forgets the owner of target.
func (s *SharedTargets) Release(target *OffscreenTarget) {
	s.mu.Lock()
	delete(s.owners, target)
	s.mu.Unlock()
}

// ReleaseContext forgets every target owned by context.
func (s *SharedTargets) ReleaseContext(context int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, o := range s.owners {
		if o.context == context {
			delete(s.owners, t)
		}
	}
}

// Len returns the number of claimed targets.
func (s *SharedTargets) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owners)
}
