package tsumiki

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permutations(in []*typeInfo) [][]*typeInfo {
	if len(in) <= 1 {
		return [][]*typeInfo{append([]*typeInfo(nil), in...)}
	}
	var out [][]*typeInfo
	for i := range in {
		rest := make([]*typeInfo, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]*typeInfo{in[i]}, p...))
		}
	}
	return out
}

// go test -run ^TestArchetypeCanonicalIdentity$ . -count 1
func TestArchetypeCanonicalIdentity(t *testing.T) {
	f := newFixture(t)
	infos := []*typeInfo{f.pos.info, f.vel.info, f.hp.info, f.tag.info}
	trie := newArchetypeTrie()

	var want *archetypeNode
	for _, order := range permutations(infos) {
		n, err := trie.insertAll(trie.root, order)
		require.NoError(t, err)
		if want == nil {
			want = n
			continue
		}
		assert.Same(t, want, n, "order %v", order)
	}
	assert.Equal(t, infos, want.types)
	assert.Equal(t, 4, want.mask.count())

	// every subset resolves to one node too
	for _, sub := range [][]*typeInfo{infos[:2], infos[1:3], {infos[3], infos[0]}} {
		a, err := trie.insertAll(trie.root, sub)
		require.NoError(t, err)
		b, err := trie.insertAll(trie.root, []*typeInfo{sub[len(sub)-1], sub[0]})
		require.NoError(t, err)
		assert.Same(t, a, b)
	}
}

// go test -run ^TestArchetypeAddIdempotent$ . -count 1
func TestArchetypeAddIdempotent(t *testing.T) {
	f := newFixture(t)
	trie := newArchetypeTrie()
	n, err := trie.insertAll(trie.root, []*typeInfo{f.vel.info, f.pos.info})
	require.NoError(t, err)
	again, err := trie.add(n, f.vel.info)
	require.NoError(t, err)
	assert.Same(t, n, again)
	again, err = trie.add(n, f.pos.info)
	require.NoError(t, err)
	assert.Same(t, n, again)
}

// go test -run ^TestArchetypeRemove$ . -count 1
func TestArchetypeRemove(t *testing.T) {
	f := newFixture(t)
	trie := newArchetypeTrie()
	full, err := trie.insertAll(trie.root, []*typeInfo{f.pos.info, f.vel.info, f.hp.info})
	require.NoError(t, err)

	noVel := trie.remove(full, f.vel.info)
	want, err := trie.insertAll(trie.root, []*typeInfo{f.hp.info, f.pos.info})
	require.NoError(t, err)
	assert.Same(t, want, noVel)

	assert.Same(t, full, trie.remove(full, f.tag.info), "absent type")
	assert.Same(t, trie.root, trie.remove(trie.remove(noVel, f.pos.info), f.hp.info))
}

// go test -run ^TestArchetypeRejectsSentinelRank$ . -count 1
func TestArchetypeRejectsSentinelRank(t *testing.T) {
	trie := newArchetypeTrie()
	bogus := &typeInfo{name: "bogus", id: sentinelRank}
	_, err := trie.add(trie.root, bogus)
	assert.ErrorIs(t, err, ErrUnsupportedArchetypeRoot)
}

// go test -run ^TestArchetypeTwoTypeScenario$ . -count 1
func TestArchetypeTwoTypeScenario(t *testing.T) {
	r := NewRegistry()
	a := RegisterComponent[Position](r)
	b := RegisterComponent[Velocity](r)
	require.Equal(t, [2]int{0, 0}, [2]int{a.Row(), a.Column()})
	require.Equal(t, [2]int{0, 1}, [2]int{b.Row(), b.Column()})

	w := NewWorld(WithRegistry(r))
	e1, err := w.NewEntity(a.New(w, nil), b.New(w, nil))
	require.NoError(t, err)
	e2, err := w.NewEntity(b.New(w, nil), a.New(w, nil))
	require.NoError(t, err)

	assert.Same(t, e1.arch, e2.arch)
	assert.Equal(t, "{tsumiki.Position, tsumiki.Velocity}", e1.arch.String())
	assert.EqualValues(t, 0, e1.slot(a.info))
	assert.EqualValues(t, 1, e2.slot(a.info))
	assert.EqualValues(t, 0, e1.slot(b.info))
	assert.EqualValues(t, 1, e2.slot(b.info))

	a.Manager(w).Clear(e1)
	assert.EqualValues(t, 0, e2.slot(a.info), "moved into the freed slot")
	assert.Equal(t, 1, a.Len(w))
	assert.Equal(t, "{tsumiki.Velocity}", e1.arch.String())
	assert.Equal(t, 4, w.ArchetypeCount(), "root, {A}, {A,B}, {B}")
}
