package store

import (
	"context"
	"fmt"

	"github.com/randalmurphal/chatflow/pkg/chatflow"
	"github.com/randalmurphal/chatflow/pkg/chatflow/codec"
)

// FlowStore encodes flows with a codec and persists them in a Store.
// It implements chatflow.Saver.
type FlowStore struct {
	store Store
	codec codec.Codec
}

// NewFlowStore pairs s with c. A nil codec means JSON.
func NewFlowStore(s Store, c codec.Codec) *FlowStore {
	if c == nil {
		c = codec.JSON{}
	}
	return &FlowStore{store: s, codec: c}
}

// SaveFlow encodes the flow and appends it as a new revision.
func (f *FlowStore) SaveFlow(ctx context.Context, flowID string, flow chatflow.Flow) error {
	_, err := f.SaveRevision(ctx, flowID, flow)
	return err
}

// SaveRevision is SaveFlow that also reports the revision number.
func (f *FlowStore) SaveRevision(ctx context.Context, flowID string, flow chatflow.Flow) (int, error) {
	data, err := f.codec.Encode(flow)
	if err != nil {
		return 0, fmt.Errorf("encode flow %s: %w", flowID, err)
	}
	return f.store.Save(ctx, flowID, data)
}

// LoadFlow returns the latest saved revision of a flow.
func (f *FlowStore) LoadFlow(ctx context.Context, flowID string) (chatflow.Flow, error) {
	data, err := f.store.Load(ctx, flowID)
	if err != nil {
		return chatflow.Flow{}, err
	}
	return f.decode(flowID, data)
}

// LoadFlowRevision returns a specific saved revision of a flow.
func (f *FlowStore) LoadFlowRevision(ctx context.Context, flowID string, rev int) (chatflow.Flow, error) {
	data, err := f.store.LoadRevision(ctx, flowID, rev)
	if err != nil {
		return chatflow.Flow{}, err
	}
	return f.decode(flowID, data)
}

// Revisions lists saved revisions of a flow, oldest first.
func (f *FlowStore) Revisions(ctx context.Context, flowID string) ([]Info, error) {
	return f.store.List(ctx, flowID)
}

// Codec returns the codec used for encoding.
func (f *FlowStore) Codec() codec.Codec { return f.codec }

func (f *FlowStore) decode(flowID string, data []byte) (chatflow.Flow, error) {
	var flow chatflow.Flow
	if err := f.codec.Decode(data, &flow); err != nil {
		return chatflow.Flow{}, fmt.Errorf("decode flow %s: %w", flowID, err)
	}
	return flow, nil
}
