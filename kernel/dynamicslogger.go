package kernel

import (
	"github.com/sirupsen/logrus"

	"github.com/vle-project/devskernel/kernel/devstime"
)

// DynamicsLogger wraps a Dynamics and logs every call at Debug level
// before delegating, the Go equivalent of original_source's ExecutiveDbg
// decorator over UserModel — there it wraps only the executive's
// structural calls; here it's generalized to any model's full DEVS
// surface, useful for tracing a single suspect model without turning on
// log output for the whole run.
type DynamicsLogger struct {
	Dynamics
	name string
	log  logrus.FieldLogger
}

// NewDynamicsLogger wraps dyn, logging each call under name.
func NewDynamicsLogger(name string, dyn Dynamics, log logrus.FieldLogger) *DynamicsLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DynamicsLogger{Dynamics: dyn, name: name, log: log.WithField("simulator", name)}
}

func (d *DynamicsLogger) Init(t devstime.Time) devstime.Time {
	ta := d.Dynamics.Init(t)
	d.log.Debugf("init(t=%v) -> ta=%v", t, ta)
	return ta
}

func (d *DynamicsLogger) TimeAdvance() devstime.Time {
	ta := d.Dynamics.TimeAdvance()
	d.log.Debugf("time_advance() -> %v", ta)
	return ta
}

func (d *DynamicsLogger) Output(t devstime.Time, out *ExternalEventList) {
	before := len(*out)
	d.Dynamics.Output(t, out)
	d.log.Debugf("output(t=%v) -> %d event(s)", t, len(*out)-before)
}

func (d *DynamicsLogger) InternalTransition(t devstime.Time) {
	d.log.Debugf("internal_transition(t=%v)", t)
	d.Dynamics.InternalTransition(t)
}

func (d *DynamicsLogger) ExternalTransition(evs ExternalEventList, t devstime.Time) {
	d.log.Debugf("external_transition(t=%v, n=%d)", t, len(evs))
	d.Dynamics.ExternalTransition(evs, t)
}

func (d *DynamicsLogger) ConfluentTransitions(t devstime.Time, evs ExternalEventList) ConfluentKind {
	kind := d.Dynamics.ConfluentTransitions(t, evs)
	d.log.Debugf("confluent_transitions(t=%v, n=%d) -> %v", t, len(evs), kind)
	return kind
}

func (d *DynamicsLogger) Finish() {
	d.log.Debug("finish()")
	d.Dynamics.Finish()
}

// BindExecutive forwards the executive handle if the wrapped Dynamics
// accepts one, so wrapping an executive model in a logger doesn't silently
// disable its structural mutation capability.
func (d *DynamicsLogger) BindExecutive(exec *Executive) {
	if binder, ok := d.Dynamics.(ExecutiveBinder); ok {
		binder.BindExecutive(exec)
	}
}
