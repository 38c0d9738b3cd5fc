package soap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// TransitionKind names the element used for a timezone transition rule.
type TransitionKind string

// Transition kinds defined by the Exchange types schema.
const (
	KindTransition             TransitionKind = "Transition"
	KindRecurringDayTransition TransitionKind = "RecurringDayTransition"
	KindAbsoluteDateTransition TransitionKind = "AbsoluteDateTransition"
)

// Transition target kinds.
const (
	TargetPeriod = "Period"
	TargetGroup  = "Group"
)

// TimezoneDefinition describes the TimeZoneContext sent with availability
// requests.
type TimezoneDefinition struct {
	Name              string             `json:"name" yaml:"name"`
	ID                string             `json:"id" yaml:"id"`
	Periods           []Period           `json:"periods,omitempty" yaml:"periods,omitempty"`
	TransitionsGroups []TransitionsGroup `json:"transitionsGroups,omitempty" yaml:"transitionsGroups,omitempty"`
	Transitions       []Transition       `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// Period is a named bias period, e.g. standard or daylight time.
type Period struct {
	Bias string `json:"bias" yaml:"bias"` // xs:duration, e.g. P0DT8H0M0.0S
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id" yaml:"id"`
}

// TransitionsGroup is an ordered set of transition rules.
type TransitionsGroup struct {
	ID          string       `json:"id" yaml:"id"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`
}

// TransitionTarget is the <To Kind="...">value</To> element of a transition.
type TransitionTarget struct {
	Kind  string `json:"kind" yaml:"kind"` // Period or Group
	Value string `json:"value" yaml:"value"`
}

// Transition is a single transition rule. Which fields are serialized
// depends on Kind: recurring rules carry TimeOffset, Month, DayOfWeek and
// Occurrence; absolute rules carry DateTime.
type Transition struct {
	Kind       TransitionKind   `json:"kind" yaml:"kind"`
	To         TransitionTarget `json:"to" yaml:"to"`
	TimeOffset string           `json:"timeOffset,omitempty" yaml:"timeOffset,omitempty"`
	Month      int              `json:"month,omitempty" yaml:"month,omitempty"`
	DayOfWeek  string           `json:"dayOfWeek,omitempty" yaml:"dayOfWeek,omitempty"`
	Occurrence int              `json:"occurrence,omitempty" yaml:"occurrence,omitempty"`
	DateTime   string           `json:"dateTime,omitempty" yaml:"dateTime,omitempty"`
}

// PacificTimezone returns the Pacific Standard Time definition Exchange
// availability requests have historically been sent with.
//
// Both top-level transitions point at group 0; group 1 is defined but never
// referenced.
func PacificTimezone() *TimezoneDefinition {
	return &TimezoneDefinition{
		Name: "(UTC-08:00) Pacific Time (US & Canada)",
		ID:   "Pacific Standard Time",
		Periods: []Period{
			{Bias: "P0DT8H0M0.0S", Name: "Standard", ID: "Std"},
			{Bias: "P0DT7H0M0.0S", Name: "Daylight", ID: "Dlt/1"},
			{Bias: "P0DT7H0M0.0S", Name: "Daylight", ID: "Dlt/2007"},
		},
		TransitionsGroups: []TransitionsGroup{
			{
				ID: "0",
				Transitions: []Transition{
					recurring("Dlt/1", 3, 1),
					recurring("Std", 11, 1),
				},
			},
			{
				ID: "1",
				Transitions: []Transition{
					recurring("Dlt/2007", 3, 2),
					recurring("Std", 11, 1),
				},
			},
		},
		Transitions: []Transition{
			{Kind: KindTransition, To: TransitionTarget{Kind: TargetGroup, Value: "0"}},
			{
				Kind:     KindAbsoluteDateTransition,
				To:       TransitionTarget{Kind: TargetGroup, Value: "0"},
				DateTime: "2015-03-01T08:00:00.000Z",
			},
		},
	}
}

func recurring(period string, month, occurrence int) Transition {
	return Transition{
		Kind:       KindRecurringDayTransition,
		To:         TransitionTarget{Kind: TargetPeriod, Value: period},
		TimeOffset: "P0DT2H0M0.0S",
		Month:      month,
		DayOfWeek:  "Sunday",
		Occurrence: occurrence,
	}
}

// Validate checks that every transition has a known kind and that targets
// refer to defined periods and groups.
func (tz *TimezoneDefinition) Validate() error {
	if tz == nil {
		return errors.New("timezone definition is nil")
	}
	if tz.ID == "" {
		return errors.New("timezone definition requires an id")
	}

	periods := make(map[string]bool, len(tz.Periods))
	for _, p := range tz.Periods {
		periods[p.ID] = true
	}
	groups := make(map[string]bool, len(tz.TransitionsGroups))
	for _, g := range tz.TransitionsGroups {
		groups[g.ID] = true
	}

	check := func(where string, t Transition) error {
		switch t.Kind {
		case KindTransition, KindRecurringDayTransition, KindAbsoluteDateTransition:
		default:
			return fmt.Errorf("%s: unknown transition kind %q", where, t.Kind)
		}
		switch t.To.Kind {
		case TargetPeriod:
			if !periods[t.To.Value] {
				return fmt.Errorf("%s: unknown period %q", where, t.To.Value)
			}
		case TargetGroup:
			if !groups[t.To.Value] {
				return fmt.Errorf("%s: unknown transitions group %q", where, t.To.Value)
			}
		default:
			return fmt.Errorf("%s: unknown target kind %q", where, t.To.Kind)
		}
		return nil
	}

	for _, g := range tz.TransitionsGroups {
		for i, t := range g.Transitions {
			if err := check(fmt.Sprintf("group %s transition %d", g.ID, i), t); err != nil {
				return err
			}
		}
	}
	for i, t := range tz.Transitions {
		if err := check(fmt.Sprintf("transition %d", i), t); err != nil {
			return err
		}
	}
	return nil
}

// Element builds the TimeZoneDefinition element using prefix for the types
// namespace.
func (tz *TimezoneDefinition) Element(prefix string) *etree.Element {
	def := newPrefixed(prefix, "TimeZoneDefinition")
	def.CreateAttr("Name", tz.Name)
	def.CreateAttr("Id", tz.ID)

	periods := def.CreateElement(prefixed(prefix, "Periods"))
	for _, p := range tz.Periods {
		el := periods.CreateElement(prefixed(prefix, "Period"))
		el.CreateAttr("Bias", p.Bias)
		el.CreateAttr("Name", p.Name)
		el.CreateAttr("Id", p.ID)
	}

	groups := def.CreateElement(prefixed(prefix, "TransitionsGroups"))
	for _, g := range tz.TransitionsGroups {
		el := groups.CreateElement(prefixed(prefix, "TransitionsGroup"))
		el.CreateAttr("Id", g.ID)
		for _, t := range g.Transitions {
			t.appendTo(el, prefix)
		}
	}

	transitions := def.CreateElement(prefixed(prefix, "Transitions"))
	for _, t := range tz.Transitions {
		t.appendTo(transitions, prefix)
	}

	return def
}

func (t Transition) appendTo(parent *etree.Element, prefix string) {
	el := parent.CreateElement(prefixed(prefix, string(t.Kind)))
	to := el.CreateElement(prefixed(prefix, "To"))
	to.CreateAttr("Kind", t.To.Kind)
	to.SetText(t.To.Value)

	switch t.Kind {
	case KindRecurringDayTransition:
		el.CreateElement(prefixed(prefix, "TimeOffset")).SetText(t.TimeOffset)
		el.CreateElement(prefixed(prefix, "Month")).SetText(strconv.Itoa(t.Month))
		el.CreateElement(prefixed(prefix, "DayOfWeek")).SetText(t.DayOfWeek)
		el.CreateElement(prefixed(prefix, "Occurrence")).SetText(strconv.Itoa(t.Occurrence))
	case KindAbsoluteDateTransition:
		el.CreateElement(prefixed(prefix, "DateTime")).SetText(t.DateTime)
	}
}

// ParseTimezoneDefinition reads a TimeZoneDefinition element back into a
// TimezoneDefinition. Child elements are matched by local name.
func ParseTimezoneDefinition(e *etree.Element) (*TimezoneDefinition, error) {
	if e == nil || e.Tag != "TimeZoneDefinition" {
		return nil, errors.New("not a TimeZoneDefinition element")
	}

	tz := &TimezoneDefinition{
		Name: e.SelectAttrValue("Name", ""),
		ID:   e.SelectAttrValue("Id", ""),
	}

	if periods := childByLocal(e, "Periods"); periods != nil {
		for _, p := range childrenByLocal(periods, "Period") {
			tz.Periods = append(tz.Periods, Period{
				Bias: p.SelectAttrValue("Bias", ""),
				Name: p.SelectAttrValue("Name", ""),
				ID:   p.SelectAttrValue("Id", ""),
			})
		}
	}

	if groups := childByLocal(e, "TransitionsGroups"); groups != nil {
		for _, g := range childrenByLocal(groups, "TransitionsGroup") {
			group := TransitionsGroup{ID: g.SelectAttrValue("Id", "")}
			for _, c := range g.ChildElements() {
				t, err := parseTransition(c)
				if err != nil {
					return nil, fmt.Errorf("group %s: %w", group.ID, err)
				}
				group.Transitions = append(group.Transitions, t)
			}
			tz.TransitionsGroups = append(tz.TransitionsGroups, group)
		}
	}

	if transitions := childByLocal(e, "Transitions"); transitions != nil {
		for _, c := range transitions.ChildElements() {
			t, err := parseTransition(c)
			if err != nil {
				return nil, err
			}
			tz.Transitions = append(tz.Transitions, t)
		}
	}

	return tz, nil
}

func parseTransition(e *etree.Element) (Transition, error) {
	t := Transition{Kind: TransitionKind(e.Tag)}
	if to := childByLocal(e, "To"); to != nil {
		t.To = TransitionTarget{Kind: to.SelectAttrValue("Kind", ""), Value: to.Text()}
	}

	switch t.Kind {
	case KindTransition:
	case KindRecurringDayTransition:
		t.TimeOffset = childText(e, "TimeOffset")
		t.DayOfWeek = childText(e, "DayOfWeek")
		var err error
		if t.Month, err = strconv.Atoi(childText(e, "Month")); err != nil {
			return t, fmt.Errorf("transition month: %w", err)
		}
		if t.Occurrence, err = strconv.Atoi(childText(e, "Occurrence")); err != nil {
			return t, fmt.Errorf("transition occurrence: %w", err)
		}
	case KindAbsoluteDateTransition:
		t.DateTime = childText(e, "DateTime")
	default:
		return t, fmt.Errorf("unknown transition element %q", e.Tag)
	}
	return t, nil
}

func childByLocal(e *etree.Element, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func childrenByLocal(e *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			out = append(out, c)
		}
	}
	return out
}

func childText(e *etree.Element, local string) string {
	if c := childByLocal(e, local); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func prefixed(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func newPrefixed(prefix, local string) *etree.Element {
	return etree.NewElement(prefixed(prefix, local))
}
