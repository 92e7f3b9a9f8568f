// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// Engine owns the MIB tree and serves queries against it. Every query
// rebuilds the tree from scratch before resolving. Engine is safe for
// concurrent use; callers are serialized for the whole cycle.
type Engine struct {
	runner Runner
	logger *slog.Logger
	groups []*compiledGroup

	mu   sync.Mutex
	tree *tree
}

// NewEngine compiles groups under base and returns an engine that
// resolves them with runner. Configuration problems in any group are
// returned together, each wrapping ErrConfiguration.
func NewEngine(base oid.OID, groups []Group, runner Runner, logger *slog.Logger) (*Engine, error) {
	compiled, err := compileGroups(base, groups)
	if err != nil {
		return nil, err
	}
	return &Engine{
		runner: runner,
		logger: logger,
		groups: compiled,
		tree:   newTree(),
	}, nil
}

// rebuild clears the tree and repopulates it from every group. On
// failure the tree is left empty. Caller must hold e.mu.
func (e *Engine) rebuild(ctx context.Context) error {
	e.tree.clear()
	for _, group := range e.groups {
		if err := e.resolveGroup(ctx, group); err != nil {
			e.tree.clear()
			return fmt.Errorf("metric group %q: %w", group.name, err)
		}
	}

	if e.logger.Enabled(ctx, slog.LevelDebug) {
		digest, err := e.tree.snapshot().Digest()
		if err != nil {
			return err
		}
		e.logger.Debug("rebuilt mib tree", "entries", e.tree.len(), "digest", digest)
	}
	return nil
}

func (e *Engine) resolveGroup(ctx context.Context, group *compiledGroup) error {
	var document any
	if group.needsCommand() {
		runContext := ctx
		if group.timeout > 0 {
			var cancel context.CancelFunc
			runContext, cancel = context.WithTimeout(ctx, group.timeout)
			defer cancel()
		}
		output, err := e.runner.Run(runContext, group.command)
		if err != nil {
			return err
		}
		document, err = parseDocument(output)
		if err != nil {
			return err
		}
	}

	for i := range group.leaves {
		value, err := group.leaves[i].resolve(document)
		if err != nil {
			return err
		}
		e.tree.insert(group.leaves[i].key, value)
	}
	return nil
}

// Get resolves each name by exact match. Misses resolve to
// NoSuchObject. Results pair each requested name with its value, in
// request order.
func (e *Engine) Get(ctx context.Context, names []oid.OID) ([]VarBind, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.rebuild(ctx); err != nil {
		return nil, err
	}
	results := make([]VarBind, len(names))
	for i, name := range names {
		value, found := e.tree.get(name)
		if !found {
			value = NoSuchObject
		}
		results[i] = VarBind{Name: name, Value: value}
	}
	return results, nil
}

// GetNext resolves each range to its first qualifying successor, or
// to the requested start paired with EndOfMibView. Results are in
// request order.
func (e *Engine) GetNext(ctx context.Context, ranges []SearchRange) ([]VarBind, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.rebuild(ctx); err != nil {
		return nil, err
	}
	results := make([]VarBind, len(ranges))
	for i, searchRange := range ranges {
		results[i] = e.tree.resolveRange(searchRange)
	}
	return results, nil
}

// GetBulk resolves the first nonRepeaters ranges with one successor
// step each, then steps every remaining range up to maxRepetitions
// times against the same tree. Repeated results are interleaved by
// repetition: all repeaters' first step, then all repeaters' second
// step, and so on. Stepping stops early once every repeater has
// reached EndOfMibView.
func (e *Engine) GetBulk(ctx context.Context, nonRepeaters, maxRepetitions int, ranges []SearchRange) ([]VarBind, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.rebuild(ctx); err != nil {
		return nil, err
	}

	nonRepeaters = min(max(nonRepeaters, 0), len(ranges))
	results := make([]VarBind, 0, len(ranges))
	for _, searchRange := range ranges[:nonRepeaters] {
		results = append(results, e.tree.resolveRange(searchRange))
	}

	repeaters := append([]SearchRange(nil), ranges[nonRepeaters:]...)
	exhausted := make([]bool, len(repeaters))
	for repetition := 0; repetition < maxRepetitions && len(repeaters) > 0; repetition++ {
		allExhausted := true
		for i := range repeaters {
			if exhausted[i] {
				results = append(results, VarBind{Name: repeaters[i].Start, Value: EndOfMibView})
				continue
			}
			binding := e.tree.resolveRange(repeaters[i])
			results = append(results, binding)
			if binding.Value.Type == TypeEndOfMibView {
				exhausted[i] = true
				continue
			}
			allExhausted = false
			repeaters[i].Start = binding.Name
			repeaters[i].Include = false
		}
		if allExhausted {
			break
		}
	}
	return results, nil
}

// Walk rebuilds the tree and returns an ordered copy of it.
func (e *Engine) Walk(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.rebuild(ctx); err != nil {
		return Snapshot{}, err
	}
	return e.tree.snapshot(), nil
}
