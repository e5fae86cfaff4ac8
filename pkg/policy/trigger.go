package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/younsl/logreaper/internal/models"
	"github.com/younsl/logreaper/pkg/utils"
)

// TriggerValue is one field of the trigger payload. Schedulers send these as
// strings, numbers, or booleans depending on how the event was authored, so
// every scalar is kept as text and interpreted once in Event.Policy.
type TriggerValue struct {
	raw string
	set bool
}

// NewTriggerValue returns a present value holding s.
func NewTriggerValue(s string) TriggerValue {
	return TriggerValue{raw: s, set: true}
}

// IsSet reports whether the field was present and not null.
func (v TriggerValue) IsSet() bool {
	return v.set
}

// String returns the raw text of the value.
func (v TriggerValue) String() string {
	return v.raw
}

// Bool reports whether the value enables a flag: boolean true or the string "true".
func (v TriggerValue) Bool() bool {
	return v.set && strings.EqualFold(strings.TrimSpace(v.raw), "true")
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *TriggerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = TriggerValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = NewTriggerValue(s)
		return nil
	}
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return fmt.Errorf("trigger value must be a scalar, got %s", data)
	}
	*v = NewTriggerValue(string(data))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *TriggerValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: trigger value must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*v = TriggerValue{}
		return nil
	}
	*v = NewTriggerValue(node.Value)
	return nil
}

// Event is the payload that triggers a run.
type Event struct {
	InclusionPrefixes TriggerValue `json:"inclusionPrefixes" yaml:"inclusionPrefixes"`
	ExclusionPatterns TriggerValue `json:"exclusionPatterns" yaml:"exclusionPatterns"`
	MinAgeHours       TriggerValue `json:"minAgeHours" yaml:"minAgeHours"`
	LastActivityHours TriggerValue `json:"lastActivityHours" yaml:"lastActivityHours"`
	ExcludeRetention  TriggerValue `json:"excludeRetention" yaml:"excludeRetention"`
	ExcludeSubscribed TriggerValue `json:"excludeSubscribed" yaml:"excludeSubscribed"`
}

// ParseEvent decodes a JSON or YAML payload.
func ParseEvent(data []byte) (Event, error) {
	var event Event
	if err := yaml.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("error parsing trigger event: %w", err)
	}
	return event, nil
}

// LoadEvent reads and decodes a payload file.
func LoadEvent(path string) (Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Event{}, fmt.Errorf("error reading trigger event %s: %w", path, err)
	}
	return ParseEvent(data)
}

// Policy converts the payload into a validated policy.
func (e Event) Policy() (models.Policy, error) {
	if !e.InclusionPrefixes.IsSet() {
		return models.Policy{}, models.ErrNoInclusionPrefixes
	}

	p := models.Policy{
		InclusionPrefixes: splitList(e.InclusionPrefixes.String()),
		ExcludeRetention:  e.ExcludeRetention.Bool(),
		ExcludeSubscribed: e.ExcludeSubscribed.Bool(),
	}

	for _, pattern := range splitList(e.ExclusionPatterns.String()) {
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return models.Policy{}, fmt.Errorf("invalid exclusion pattern %q: %w", pattern, err)
		}
		p.ExclusionPatterns = append(p.ExclusionPatterns, re)
	}

	var err error
	if p.MinAge, err = parseHours("minAgeHours", e.MinAgeHours); err != nil {
		return models.Policy{}, err
	}
	if p.LastActivity, err = parseHours("lastActivityHours", e.LastActivityHours); err != nil {
		return models.Policy{}, err
	}

	if err := p.Validate(); err != nil {
		return models.Policy{}, err
	}
	return p, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

func parseHours(field string, v TriggerValue) (*time.Duration, error) {
	raw := strings.TrimSpace(v.String())
	if !v.IsSet() || raw == "" {
		return nil, nil
	}

	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return nil, fmt.Errorf("%s must be a number of hours, got %q", field, raw)
	}
	if hours < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %q", field, raw)
	}
	if hours >= utils.MaxHours {
		return nil, fmt.Errorf("%s must be below %.0f hours, got %q", field, utils.MaxHours, raw)
	}
	// A zero threshold can never protect a group.
	if hours == 0 {
		return nil, nil
	}

	d := utils.HoursToDuration(hours)
	return &d, nil
}
