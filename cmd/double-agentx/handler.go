// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/double-agentx/lib/agentx"
	"github.com/bureau-foundation/double-agentx/lib/mib"
	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// engineHandler answers AgentX requests from a mib.Engine.
type engineHandler struct {
	engine *mib.Engine
}

func (h engineHandler) Get(ctx context.Context, names []oid.OID) ([]agentx.VarBind, error) {
	bindings, err := h.engine.Get(ctx, names)
	if err != nil {
		return nil, err
	}
	return toWire(bindings)
}

func (h engineHandler) GetNext(ctx context.Context, ranges []agentx.SearchRange) ([]agentx.VarBind, error) {
	bindings, err := h.engine.GetNext(ctx, fromWire(ranges))
	if err != nil {
		return nil, err
	}
	return toWire(bindings)
}

func (h engineHandler) GetBulk(ctx context.Context, nonRepeaters, maxRepetitions int, ranges []agentx.SearchRange) ([]agentx.VarBind, error) {
	bindings, err := h.engine.GetBulk(ctx, nonRepeaters, maxRepetitions, fromWire(ranges))
	if err != nil {
		return nil, err
	}
	return toWire(bindings)
}

func fromWire(ranges []agentx.SearchRange) []mib.SearchRange {
	converted := make([]mib.SearchRange, len(ranges))
	for i, searchRange := range ranges {
		converted[i] = mib.SearchRange{
			Start:   searchRange.Start,
			Include: searchRange.Include,
			End:     searchRange.End,
		}
	}
	return converted
}

func toWire(bindings []mib.VarBind) ([]agentx.VarBind, error) {
	converted := make([]agentx.VarBind, len(bindings))
	for i, binding := range bindings {
		wire := agentx.VarBind{Name: binding.Name}
		switch binding.Value.Type {
		case mib.TypeInteger:
			wire.Type, wire.Value = agentx.ValueInteger, binding.Value.Integer
		case mib.TypeOctetString:
			wire.Type, wire.Value = agentx.ValueOctetString, []byte(binding.Value.OctetString)
		case mib.TypeNoSuchObject:
			wire.Type = agentx.ValueNoSuchObject
		case mib.TypeEndOfMibView:
			wire.Type = agentx.ValueEndOfMibView
		default:
			return nil, fmt.Errorf("varbind %s: no AgentX encoding for %s", binding.Name, binding.Value.Type)
		}
		converted[i] = wire
	}
	return converted, nil
}
