package kanidmapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeOrderedSetPreservesHeadAndDedups(t *testing.T) {
	got := NormalizeOrderedSet([]string{"Alice@Example.com", "bob@example.com", "ALICE@Example.com"})
	require.Equal(t, []string{"alice@Example.com", "bob@example.com"}, got)
}

func TestNormalizeUnorderedSetSortsAfterDedup(t *testing.T) {
	got := NormalizeUnorderedSet([]string{"Zed", "alice", "zed"})
	require.Equal(t, []string{"alice", "zed"}, got)
}

func TestDiffScalarUnsetIsAlwaysNoop(t *testing.T) {
	op := DiffScalar("mail", []string{}, []string{"old@example.com"}, false)
	require.Equal(t, OpNoop, op.Kind)
}

func TestDiffScalarExplicitEmptyDeletes(t *testing.T) {
	op := DiffScalar("mail", []string{}, []string{"old@example.com"}, true)
	require.Equal(t, OpDelete, op.Kind)
}

func TestDiffScalarDifferentSets(t *testing.T) {
	op := DiffScalar("mail", "new@example.com", "old@example.com", true)
	require.Equal(t, OpSet, op.Kind)
	require.Equal(t, "new@example.com", op.Value)
}
