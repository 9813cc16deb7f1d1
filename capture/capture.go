// Package capture records body pose traces from a simulation run. A trace is
// a side concern for offline inspection; it never feeds back into a verdict.
package capture

import (
	"encoding/json"
	"io"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/imaginelab/affordance/physics"
)

// Sample is one recorded body state, serialized as a single JSON line.
type Sample struct {
	Step        int        `json:"step"`
	Body        string     `json:"body"`
	Position    r3.Vector  `json:"position"`
	Orientation [4]float64 `json:"orientation"` // w, x, y, z
}

// Recorder samples body poses every Interval steps and writes them as JSON
// lines to a sink.
type Recorder struct {
	enc      *json.Encoder
	interval int
}

// NewRecorder returns a recorder writing to w, sampling every interval
// steps. An interval below 1 records every step.
func NewRecorder(w io.Writer, interval int) *Recorder {
	if interval < 1 {
		interval = 1
	}
	return &Recorder{enc: json.NewEncoder(w), interval: interval}
}

// Record writes samples for the given bodies if the step falls on the
// recorder's interval.
func (r *Recorder) Record(step int, bodies []physics.Body) error {
	if r == nil || step%r.interval != 0 {
		return nil
	}
	for _, b := range bodies {
		pose := b.Pose()
		s := Sample{
			Step:     step,
			Body:     b.Name(),
			Position: pose.Point,
			Orientation: [4]float64{
				pose.Orientation.Real,
				pose.Orientation.Imag,
				pose.Orientation.Jmag,
				pose.Orientation.Kmag,
			},
		}
		if err := r.enc.Encode(&s); err != nil {
			return errors.Wrap(err, "cannot write trace sample")
		}
	}
	return nil
}
