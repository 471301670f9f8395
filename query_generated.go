package tsumiki

import "reflect"

// Query1 iterates entities holding component A.
type Query1[A any] struct {
	queryCursor
	pos [1]*typeInfo
}

// NewQuery1 builds a query over w. Requesting the same types in another
// order shares the compiled plan; Get still returns values in request order.
//
// Parameters:
//   - w: The World to query.
//   - opts: Optional filters such as Without.
//
// Returns:
//   - The query, or ErrUnregisteredType if a type is unknown to w's registry.
func NewQuery1[A any](w *World, opts ...QueryOption) (*Query1[A], error) {
	pos, plan, err := w.resolveQuery([]reflect.Type{reflect.TypeFor[A]()}, opts)
	if err != nil {
		return nil, err
	}
	return newQuery1[A](w, pos, plan), nil
}

func newQuery1[A any](w *World, pos []*typeInfo, plan *queryPlan) *Query1[A] {
	q := &Query1[A]{}
	copy(q.pos[:], pos)
	q.init(w, plan)
	return q
}

// UseQuery1 is NewQuery1 cached in the running system under name.
func UseQuery1[A any](sc *SystemContext, name string, opts ...QueryOption) (*Query1[A], error) {
	pos, plan, err := sc.World.resolveQuery([]reflect.Type{reflect.TypeFor[A]()}, opts)
	if err != nil {
		return nil, err
	}
	return bindQuery(sc, name, plan, func() *Query1[A] {
		return newQuery1[A](sc.World, pos, plan)
	})
}

// Get returns the current entity's value. Only valid after Next returned true.
func (q *Query1[A]) Get() *A {
	return q.valueAt(q.pos[0]).(*A)
}

// Each rewinds the query and calls fn for every match. fn may delete the
// entity it is handed.
func (q *Query1[A]) Each(fn func(e *Entity, a *A)) {
	q.reset()
	for q.next() {
		a := q.Get()
		fn(q.cur, a)
	}
}

// Query2 iterates entities holding all of the 2 components: A, B.
type Query2[A any, B any] struct {
	queryCursor
	pos [2]*typeInfo
}

// NewQuery2 builds a query over w. Requesting the same types in another
// order shares the compiled plan; Get still returns values in request order.
//
// Parameters:
//   - w: The World to query.
//   - opts: Optional filters such as Without.
//
// Returns:
//   - The query, or ErrUnregisteredType if a type is unknown to w's registry.
func NewQuery2[A any, B any](w *World, opts ...QueryOption) (*Query2[A, B], error) {
	pos, plan, err := w.resolveQuery([]reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()}, opts)
	if err != nil {
		return nil, err
	}
	return newQuery2[A, B](w, pos, plan), nil
}

func newQuery2[A any, B any](w *World, pos []*typeInfo, plan *queryPlan) *Query2[A, B] {
	q := &Query2[A, B]{}
	copy(q.pos[:], pos)
	q.init(w, plan)
	return q
}

// UseQuery2 is NewQuery2 cached in the running system under name.
func UseQuery2[A any, B any](sc *SystemContext, name string, opts ...QueryOption) (*Query2[A, B], error) {
	pos, plan, err := sc.World.resolveQuery([]reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()}, opts)
	if err != nil {
		return nil, err
	}
	return bindQuery(sc, name, plan, func() *Query2[A, B] {
		return newQuery2[A, B](sc.World, pos, plan)
	})
}

// Get returns the current entity's values in request order.
func (q *Query2[A, B]) Get() (*A, *B) {
	return q.valueAt(q.pos[0]).(*A),
		q.valueAt(q.pos[1]).(*B)
}

// Each rewinds the query and calls fn for every match. fn may delete the
// entity it is handed.
func (q *Query2[A, B]) Each(fn func(e *Entity, a *A, b *B)) {
	q.reset()
	for q.next() {
		a, b := q.Get()
		fn(q.cur, a, b)
	}
}

// Query3 iterates entities holding all of the 3 components: A, B, C.
type Query3[A any, B any, C any] struct {
	queryCursor
	pos [3]*typeInfo
}

// NewQuery3 builds a query over w. Requesting the same types in another
// order shares the compiled plan; Get still returns values in request order.
//
// Parameters:
//   - w: The World to query.
//   - opts: Optional filters such as Without.
//
// Returns:
//   - The query, or ErrUnregisteredType if a type is unknown to w's registry.
func NewQuery3[A any, B any, C any](w *World, opts ...QueryOption) (*Query3[A, B, C], error) {
	pos, plan, err := w.resolveQuery([]reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()}, opts)
	if err != nil {
		return nil, err
	}
	return newQuery3[A, B, C](w, pos, plan), nil
}

func newQuery3[A any, B any, C any](w *World, pos []*typeInfo, plan *queryPlan) *Query3[A, B, C] {
	q := &Query3[A, B, C]{}
	copy(q.pos[:], pos)
	q.init(w, plan)
	return q
}

// UseQuery3 is NewQuery3 cached in the running system under name.
func UseQuery3[A any, B any, C any](sc *SystemContext, name string, opts ...QueryOption) (*Query3[A, B, C], error) {
	pos, plan, err := sc.World.resolveQuery([]reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()}, opts)
	if err != nil {
		return nil, err
	}
	return bindQuery(sc, name, plan, func() *Query3[A, B, C] {
		return newQuery3[A, B, C](sc.World, pos, plan)
	})
}

// Get returns the current entity's values in request order.
func (q *Query3[A, B, C]) Get() (*A, *B, *C) {
	return q.valueAt(q.pos[0]).(*A),
		q.valueAt(q.pos[1]).(*B),
		q.valueAt(q.pos[2]).(*C)
}

// Each rewinds the query and calls fn for every match. fn may delete the
// entity it is handed.
func (q *Query3[A, B, C]) Each(fn func(e *Entity, a *A, b *B, c *C)) {
	q.reset()
	for q.next() {
		a, b, c := q.Get()
		fn(q.cur, a, b, c)
	}
}

// Query4 iterates entities holding all of the 4 components: A, B, C, D.
type Query4[A any, B any, C any, D any] struct {
	queryCursor
	pos [4]*typeInfo
}

// NewQuery4 builds a query over w. Requesting the same types in another
// order shares the compiled plan; Get still returns values in request order.
//
// Parameters:
//   - w: The World to query.
//   - opts: Optional filters such as Without.
//
// Returns:
//   - The query, or ErrUnregisteredType if a type is unknown to w's registry.
func NewQuery4[A any, B any, C any, D any](w *World, opts ...QueryOption) (*Query4[A, B, C, D], error) {
	pos, plan, err := w.resolveQuery([]reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D]()}, opts)
	if err != nil {
		return nil, err
	}
	return newQuery4[A, B, C, D](w, pos, plan), nil
}

func newQuery4[A any, B any, C any, D any](w *World, pos []*typeInfo, plan *queryPlan) *Query4[A, B, C, D] {
	q := &Query4[A, B, C, D]{}
	copy(q.pos[:], pos)
	q.init(w, plan)
	return q
}

// UseQuery4 is NewQuery4 cached in the running system under name.
func UseQuery4[A any, B any, C any, D any](sc *SystemContext, name string, opts ...QueryOption) (*Query4[A, B, C, D], error) {
	pos, plan, err := sc.World.resolveQuery([]reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D]()}, opts)
	if err != nil {
		return nil, err
	}
	return bindQuery(sc, name, plan, func() *Query4[A, B, C, D] {
		return newQuery4[A, B, C, D](sc.World, pos, plan)
	})
}

// Get returns the current entity's values in request order.
func (q *Query4[A, B, C, D]) Get() (*A, *B, *C, *D) {
	return q.valueAt(q.pos[0]).(*A),
		q.valueAt(q.pos[1]).(*B),
		q.valueAt(q.pos[2]).(*C),
		q.valueAt(q.pos[3]).(*D)
}

// Each rewinds the query and calls fn for every match. fn may delete the
// entity it is handed.
func (q *Query4[A, B, C, D]) Each(fn func(e *Entity, a *A, b *B, c *C, d *D)) {
	q.reset()
	for q.next() {
		a, b, c, d := q.Get()
		fn(q.cur, a, b, c, d)
	}
}
