package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitmentReplayRejected(t *testing.T) {
	s := NewMemory(3, 3, 3)
	var r [32]byte
	r[0] = 7

	ok, err := s.CheckCommitment(1, r)
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, s.RecordCommitment(1, r))

	ok, err = s.CheckCommitment(1, r)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCommitmentScopedPerPeer(t *testing.T) {
	s := NewMemory(3, 3, 3)
	var r [32]byte
	r[0] = 9
	assert.NoError(t, s.RecordCommitment(1, r))

	ok, err := s.CheckCommitment(2, r)
	assert.NoError(t, err)
	assert.True(t, ok, "a commitment accepted from peer 1 must not block the same bytes from peer 2")
}

func TestIntrusionAccounting(t *testing.T) {
	s := NewMemory(1, 1, 1)

	assert.NoError(t, s.ManageIntrusion(1, false, true))
	schnorrEx, macEx, combEx, err := s.CheckIntrusion(1)
	assert.NoError(t, err)
	assert.False(t, schnorrEx)
	assert.False(t, macEx)
	assert.False(t, combEx)

	assert.NoError(t, s.ManageIntrusion(1, false, true))
	schnorrEx, macEx, combEx, err = s.CheckIntrusion(1)
	assert.NoError(t, err)
	assert.True(t, schnorrEx)
	assert.False(t, macEx)
	assert.False(t, combEx)

	assert.NoError(t, s.ManageIntrusion(1, false, false))
	assert.NoError(t, s.ManageIntrusion(1, false, false))
	_, _, combEx, _ = s.CheckIntrusion(1)
	assert.True(t, combEx)
}

func TestManageIntrusionBothOKIsNoOp(t *testing.T) {
	s := NewMemory(0, 0, 0)
	assert.NoError(t, s.ManageIntrusion(1, true, true))
	schnorrEx, macEx, combEx, _ := s.CheckIntrusion(1)
	assert.False(t, schnorrEx)
	assert.False(t, macEx)
	assert.False(t, combEx)
}

func TestInitDataIsIdempotent(t *testing.T) {
	s := NewMemory(5, 5, 5)
	assert.NoError(t, s.InitData(1))
	assert.NoError(t, s.InitData(1))
	schnorrEx, macEx, combEx, err := s.CheckIntrusion(1)
	assert.NoError(t, err)
	assert.False(t, schnorrEx || macEx || combEx)
}
