package approval

import (
	"testing"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	resolved []model.ApprovalResolution
}

func (f *fakeResolver) ResolveApproval(nodeID, approvalID string, resolution model.ApprovalResolution) error {
	f.resolved = append(f.resolved, resolution)
	return nil
}

func TestResolveForwardsToResolver(t *testing.T) {
	r := &fakeResolver{}
	q := New(r)
	q.Request(model.Approval{ID: "t1", NodeID: "n1"})

	require.NoError(t, q.Resolve("t1", model.ApprovalResolution{Kind: model.ApprovalApproved}))
	require.Len(t, r.resolved, 1)
	assert.Equal(t, model.ApprovalApproved, r.resolved[0].Kind)

	_, stillPending := q.Pending("t1")
	assert.False(t, stillPending)
}

func TestResolveUnknownIDIsNoOp(t *testing.T) {
	r := &fakeResolver{}
	q := New(r)

	err := q.Resolve("missing", model.ApprovalResolution{Kind: model.ApprovalApproved})
	require.NoError(t, err)
	assert.Empty(t, r.resolved)
}

func TestResolvingAlreadyResolvedIsNoOp(t *testing.T) {
	r := &fakeResolver{}
	q := New(r)
	q.Request(model.Approval{ID: "t1", NodeID: "n1"})

	require.NoError(t, q.Resolve("t1", model.ApprovalResolution{Kind: model.ApprovalApproved}))
	require.NoError(t, q.Resolve("t1", model.ApprovalResolution{Kind: model.ApprovalDenied}))

	require.Len(t, r.resolved, 1, "a second resolution for the same id must not double-forward")
}

func TestModifiedWithoutArgsIsTreatedAsDenied(t *testing.T) {
	r := &fakeResolver{}
	q := New(r)
	q.Request(model.Approval{ID: "t1", NodeID: "n1"})

	require.NoError(t, q.Resolve("t1", model.ApprovalResolution{Kind: model.ApprovalModified}))
	require.Len(t, r.resolved, 1)
	assert.Equal(t, model.ApprovalDenied, r.resolved[0].Kind)
	assert.NotEmpty(t, r.resolved[0].Error)
}

func TestDropForNodeRemovesOnlyThatNodesApprovals(t *testing.T) {
	q := New(&fakeResolver{})
	q.Request(model.Approval{ID: "t1", NodeID: "n1"})
	q.Request(model.Approval{ID: "t2", NodeID: "n2"})

	dropped := q.DropForNode("n1")
	assert.Equal(t, []string{"t1"}, dropped)

	_, ok := q.Pending("t2")
	assert.True(t, ok)
}
