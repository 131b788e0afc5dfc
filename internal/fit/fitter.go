package fit

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"elastic-fit/internal/mesh"
	"elastic-fit/internal/meshops"
	"elastic-fit/internal/monitoring"
)

// Report summarises a completed StartFit.
type Report struct {
	SessionID      string
	ProxyTriangles int
	Subdivisions   int
	Fitted         int
	Preserved      int
	Suppressed     int // proxy vertices held in place near preserved vertices
	Warnings       []error
}

// maxDeferredRounds bounds how many deferred updates one recompute applies
// after its observers return.
const maxDeferredRounds = 8

// Fitter owns the single fit session and routes parameter changes to it.
//
// All operations are serialised by a mutex. Recomputation is additionally
// guarded by an in-flight flag: a parameter change that arrives while a
// recompute is running, whether from an observer reacting to the position
// write or from another goroutine, never nests. Only the latest such
// change is kept, and it is applied once the running recompute and its
// observers have finished.
type Fitter struct {
	ops meshops.MeshOps

	mu        sync.Mutex
	session   *Session
	params    Params
	observers []func(*mesh.Object)

	inFlight  atomic.Bool
	pendingMu sync.Mutex
	pending   *Params
}

// New returns a Fitter using ops for mesh operations and default
// parameters. A nil ops uses meshops.Native.
func New(ops meshops.MeshOps) *Fitter {
	if ops == nil {
		ops = meshops.Native{}
	}
	return &Fitter{ops: ops, params: DefaultParams()}
}

// Params returns the current parameters.
func (f *Fitter) Params() Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params
}

// Active reports whether a session is previewing.
func (f *Fitter) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session != nil
}

// Session returns the active session, or nil.
func (f *Fitter) Session() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

// Observe registers fn to be called after every write to clothing
// positions.
func (f *Fitter) Observe(fn func(*mesh.Object)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
}

// notify runs observers with the in-flight flag raised, so updates they
// trigger are deferred. It must be called without f.mu held. When notify
// raised the flag itself, deferred updates are discarded afterwards since
// the operation that wrote the positions was not a recompute.
func (f *Fitter) notify(obj *mesh.Object) {
	f.mu.Lock()
	obs := slices.Clone(f.observers)
	f.mu.Unlock()
	if len(obs) == 0 {
		return
	}

	if f.inFlight.CompareAndSwap(false, true) {
		defer f.release(Params{}, true)
	}
	for _, fn := range obs {
		fn(obj)
	}
}

// deferUpdate records p as the update to apply when the running recompute
// ends. It reports false when no recompute is running any more, in which
// case the caller should take the in-flight flag itself.
func (f *Fitter) deferUpdate(p Params) bool {
	f.pendingMu.Lock()
	defer f.pendingMu.Unlock()
	if !f.inFlight.Load() {
		return false
	}
	f.pending = &p
	return true
}

// release hands the in-flight flag to a deferred update that differs from
// last, or lowers the flag and drops whatever was deferred when there is
// none or stop is set.
func (f *Fitter) release(last Params, stop bool) (Params, bool) {
	f.pendingMu.Lock()
	defer f.pendingMu.Unlock()
	next := f.pending
	f.pending = nil
	if !stop && next != nil && *next != last {
		return *next, true
	}
	f.inFlight.Store(false)
	return Params{}, false
}

func validateObject(role string, obj *mesh.Object) error {
	switch {
	case obj == nil:
		return &ValidationError{Subject: role, Reason: "no object selected", Err: ErrInvalidObject}
	case obj.Type != mesh.TypeMesh || obj.Mesh == nil:
		return &ValidationError{Subject: role, Reason: fmt.Sprintf("%s is not a mesh", obj.Name), Err: ErrInvalidObject}
	}
	return nil
}

// StartFit fits clothing onto body and leaves the result previewing.
// Validation, blocker and parameter errors are returned before anything
// is modified; a later failure puts the clothing back as it was, cleanup
// and snapshot included. On success any previous session is discarded
// without restoring it.
func (f *Fitter) StartFit(clothing, body *mesh.Object, p Params) (*Report, error) {
	if err := validateObject("clothing", clothing); err != nil {
		return nil, err
	}
	if err := validateObject("body", body); err != nil {
		return nil, err
	}
	if clothing == body {
		return nil, &ValidationError{Subject: "clothing", Reason: "clothing and body must be different objects", Err: ErrInvalidObject}
	}
	if sk, mods := Blockers(clothing); sk > 0 || len(mods) > 0 {
		return nil, &BlockerError{Object: clothing.Name, ShapeKeys: sk, Modifiers: mods}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if !f.inFlight.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("fit: start %s: recompute in progress", clothing.Name)
	}

	f.mu.Lock()
	rep, err := f.startFit(clothing, body, p)
	f.mu.Unlock()
	if err != nil {
		f.release(p, true)
		return nil, err
	}
	f.notify(clothing)
	if next, ok := f.release(p, false); ok {
		if err := f.drain(next); err != nil {
			monitoring.Logf("fit: %s: deferred update: %v", clothing.Name, err)
		}
	}
	return rep, nil
}

func (f *Fitter) startFit(clothing, body *mesh.Object, p Params) (*Report, error) {
	defer monitoring.Timed("fit " + clothing.Name)()

	prev := f.session
	f.session = nil
	rep := &Report{SessionID: uuid.New().String()}

	saved := saveState(clothing)
	fail := func(err error) (*Report, error) {
		saved.restore(clothing)
		f.session = prev
		return nil, err
	}

	if p.Cleanup {
		stripFitModifiers(clothing)
		if restoreOriginals(clothing) {
			monitoring.Logf("fit: %s restored to its pre-fit shape before refitting", clothing.Name)
		}
	}

	m := clothing.Mesh
	m.EnsureEdges()

	group := strings.TrimSpace(p.PreserveGroup)
	var preserve *mesh.Group
	if group != "" {
		g, ok := m.Group(group)
		if !ok {
			w := &MissingGroupWarning{Group: group}
			monitoring.Logf("%v", w)
			rep.Warnings = append(rep.Warnings, w)
			group = ""
		}
		preserve = g
	}
	class := Classify(len(m.Verts), preserve)
	rest := m.Positions()

	proxy := BuildProxy(f.ops, m, p.ProxyTriangles)
	if err := Project(f.ops, proxy, body.Mesh, p.Offset); err != nil {
		return fail(err)
	}
	rep.Suppressed = SuppressPreserved(proxy, rest, class)

	var uvs meshops.UVSnapshot
	if p.PreserveUVs {
		uvs = f.ops.SnapshotUVs(m)
	}

	s := &Session{
		ID:            rep.SessionID,
		Object:        clothing,
		Rest:          rest,
		Raw:           Transfer(proxy, rest, class),
		Normal:        BodyNormals(body.Mesh, rest, class),
		Adj:           BuildAdjacency(m.Edges, class),
		Class:         class,
		Offset:        p.Offset,
		PreserveGroup: group,
		UVs:           uvs,
	}
	clothing.SetMeta(MetaOriginals, FlattenPositions(rest))

	if err := s.write(s.Positions(p)); err != nil {
		return fail(err)
	}
	if uvs != nil {
		f.ops.RestoreUVs(m, uvs)
	}
	f.session = s
	f.params = p

	rep.ProxyTriangles = proxy.Triangles
	rep.Subdivisions = proxy.Level
	rep.Fitted = len(class.Fitted)
	rep.Preserved = len(class.Preserved)
	monitoring.Logf("fit: %s previewing (%d tri proxy, %d subdivisions, %d fitted, %d preserved)",
		clothing.Name, rep.ProxyTriangles, rep.Subdivisions, rep.Fitted, rep.Preserved)
	return rep, nil
}

// UpdateParams recomputes the preview with p. A call made while a
// recompute is already running returns nil at once; p is applied after
// that recompute finishes unless a later call replaces it first.
// Calling it twice with the same p yields the same positions.
func (f *Fitter) UpdateParams(p Params) error {
	for !f.inFlight.CompareAndSwap(false, true) {
		if f.deferUpdate(p) {
			return nil
		}
	}
	return f.drain(p)
}

// drain applies p, then every update deferred while it ran. The caller
// holds the in-flight flag; drain lowers it.
func (f *Fitter) drain(p Params) error {
	for round := 0; ; round++ {
		f.mu.Lock()
		obj, err := f.update(p)
		f.mu.Unlock()
		if err != nil {
			f.release(p, true)
			return err
		}
		f.notify(obj)

		next, ok := f.release(p, false)
		if !ok {
			return nil
		}
		if round == maxDeferredRounds {
			f.release(next, true)
			monitoring.Logf("fit: %s: dropped update after %d deferred rounds", obj.Name, round)
			return nil
		}
		p = next
	}
}

func (f *Fitter) update(p Params) (*mesh.Object, error) {
	s := f.session
	if s == nil {
		return nil, &SessionStateError{Op: "update"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f.params = p
	if err := s.write(s.Positions(p)); err != nil {
		f.session = nil
		return nil, err
	}
	return s.Object, nil
}

// Handle applies a single parameter change. Preview fields refresh an
// active session; the rest are stored for the next fit or commit. A
// refresh requested during a recompute is deferred like UpdateParams.
func (f *Fitter) Handle(ev ParameterChanged) error {
	f.mu.Lock()
	p := f.params
	if err := p.Set(ev.Field, ev.Value); err != nil {
		f.mu.Unlock()
		return err
	}
	if p.DispSmoothMin > p.DispSmoothMax {
		if ev.Field == FieldDispSmoothMin {
			p.DispSmoothMax = p.DispSmoothMin
		} else {
			p.DispSmoothMin = p.DispSmoothMax
		}
	}
	f.params = p
	refresh := ev.Field.Preview() && f.session != nil
	f.mu.Unlock()

	if !refresh {
		return nil
	}
	return f.UpdateParams(p)
}

// ResetDefaults restores default parameters, keeping the preserve group,
// and refreshes an active preview.
func (f *Fitter) ResetDefaults() error {
	f.mu.Lock()
	p := DefaultParams()
	p.PreserveGroup = f.params.PreserveGroup
	f.params = p
	active := f.session != nil
	f.mu.Unlock()

	if !active {
		return nil
	}
	return f.UpdateParams(p)
}

// Commit accepts the preview, runs post-processing on the clothing and
// ends the session. The pre-fit snapshot stays in the object metadata so
// RemoveFit can still undo the fit.
func (f *Fitter) Commit(post PostOptions) error {
	f.mu.Lock()
	s := f.session
	if s == nil {
		f.mu.Unlock()
		return &SessionStateError{Op: "commit"}
	}
	m := s.Object.Mesh
	if len(m.Verts) != len(s.Rest) {
		f.session = nil
		f.mu.Unlock()
		return fmt.Errorf("fit: commit %s: vertex count changed during preview", s.Object.Name)
	}
	PostProcess(f.ops, m, s.Rest, s.Class, post)
	if s.UVs != nil {
		f.ops.RestoreUVs(m, s.UVs)
	}
	f.session = nil
	f.mu.Unlock()

	monitoring.Logf("fit: %s applied", s.Object.Name)
	f.notify(s.Object)
	return nil
}

// Cancel restores the clothing to its pre-fit positions and ends the
// session.
func (f *Fitter) Cancel() error {
	f.mu.Lock()
	s := f.session
	if s == nil {
		f.mu.Unlock()
		return &SessionStateError{Op: "cancel"}
	}
	f.session = nil
	err := s.write(s.Rest)
	f.mu.Unlock()
	if err != nil {
		return err
	}

	monitoring.Logf("fit: %s cancelled, mesh restored", s.Object.Name)
	f.notify(s.Object)
	return nil
}

// RemoveFit undoes a fit on obj regardless of session state: it ends a
// session on obj, strips fit modifiers and restores the positions saved
// in the object metadata, if any.
func (f *Fitter) RemoveFit(obj *mesh.Object) error {
	if err := validateObject("clothing", obj); err != nil {
		return err
	}
	f.mu.Lock()
	if f.session != nil && f.session.Object == obj {
		f.session = nil
	}
	n := stripFitModifiers(obj)
	restored := restoreOriginals(obj)
	f.mu.Unlock()

	monitoring.Logf("fit: removed from %s (%d modifiers, snapshot restored: %t)", obj.Name, n, restored)
	f.notify(obj)
	return nil
}

// ClearBlockers removes shape keys and blocking modifiers from obj.
func (f *Fitter) ClearBlockers(obj *mesh.Object) (Cleared, error) {
	if err := validateObject("clothing", obj); err != nil {
		return Cleared{}, err
	}
	f.mu.Lock()
	c := clearBlockers(obj)
	f.mu.Unlock()

	if c.Empty() {
		monitoring.Logf("fit: %s has nothing to clear", obj.Name)
	} else {
		monitoring.Logf("fit: %s cleared %d shape keys, modifiers %v", obj.Name, c.ShapeKeys, c.Modifiers)
	}
	return c, nil
}
