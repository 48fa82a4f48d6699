package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sosodev/duration"
)

// Seconds is a duration given either as a number of seconds or as an
// ISO 8601 duration string such as "PT45M".
type Seconds int

func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

func (s *Seconds) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		d, err := duration.Parse(text)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", text, err)
		}
		*s = Seconds(d.ToTimeDuration() / time.Second)
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("duration must be whole seconds: %w", err)
	}
	*s = Seconds(v)
	return nil
}

// Ptr converts an optional duration into optional whole seconds.
func (s *Seconds) Ptr() *int {
	if s == nil {
		return nil
	}
	v := int(*s)
	return &v
}

// String renders the duration in ISO 8601 form.
func (s Seconds) String() string {
	return duration.Format(time.Duration(s) * time.Second)
}
