package stacking

// rule is one row of the classification table. A rule is skipped when
// the catalog lacks any of requires, or lacks every one of anyOf.
type rule struct {
	label    PolarLabel
	requires []string
	anyOf    []string
	match    func(v view) bool
}

// rules is evaluated top to bottom and the first match wins. The order is
// authoritative: changing it changes which label a point receives.
var rules = []rule{
	{
		label: NonPolar,
		match: func(v view) bool { return v.allPreserved() },
	},
	{
		label:    XPolar,
		requires: []string{"Mx", "My"},
		match:    func(v view) bool { return v.preserved("My") && v.broken("Mx") },
	},
	{
		label:    YPolar,
		requires: []string{"Mx", "My"},
		match:    func(v view) bool { return v.preserved("Mx") && v.broken("My") },
	},
	{
		label:    ZPolar,
		requires: []string{"Mx", "My", "C2"},
		match:    func(v view) bool { return v.broken("Mx") && v.broken("My") && v.preserved("C2") },
	},
	{
		label: XYPolar,
		anyOf: []string{"Mxy", "Mxy-"},
		match: func(v view) bool {
			return (v.broken("Mxy") || v.broken("Mxy-")) && !(v.broken("Mx") && v.broken("My"))
		},
	},
	{
		label: GeneralPolar,
		match: func(v view) bool { return !v.allPreserved() },
	},
}

// view answers rule predicates for one preservation mask.
type view struct {
	c    *Classifier
	mask uint64
}

func (v view) preserved(name string) bool {
	k, ok := v.c.index[name]
	return ok && v.mask&(1<<uint(k)) != 0
}

func (v view) broken(name string) bool {
	k, ok := v.c.index[name]
	return ok && v.mask&(1<<uint(k)) == 0
}

func (v view) allPreserved() bool { return v.mask&v.c.all == v.c.all }

// Classifier labels preservation masks for one ordered operation list.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	names []string
	index map[string]int
	all   uint64
	rules []rule
}

// NewClassifier binds the rule table to an operation list. Bit k of every
// mask passed to Label refers to names[k].
func NewClassifier(names []string) *Classifier {
	c := &Classifier{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for k, n := range names {
		c.index[n] = k
		c.all |= 1 << uint(k)
	}
	for _, r := range rules {
		if c.has(r.requires...) && (len(r.anyOf) == 0 || c.hasAny(r.anyOf...)) {
			c.rules = append(c.rules, r)
		}
	}
	return c
}

func (c *Classifier) has(names ...string) bool {
	for _, n := range names {
		if _, ok := c.index[n]; !ok {
			return false
		}
	}
	return true
}

func (c *Classifier) hasAny(names ...string) bool {
	for _, n := range names {
		if _, ok := c.index[n]; ok {
			return true
		}
	}
	return false
}

// Label returns the first matching rule's label for mask.
func (c *Classifier) Label(mask uint64) PolarLabel {
	v := view{c: c, mask: mask}
	for _, r := range c.rules {
		if r.match(v) {
			return r.label
		}
	}
	return GeneralPolar
}

// Split expands mask into preserved and broken name lists, each in
// catalog order.
func (c *Classifier) Split(mask uint64) (preserved, broken []string) {
	preserved = make([]string, 0, len(c.names))
	broken = make([]string, 0, len(c.names))
	for k, n := range c.names {
		if mask&(1<<uint(k)) != 0 {
			preserved = append(preserved, n)
		} else {
			broken = append(broken, n)
		}
	}
	return preserved, broken
}

// RuleLabels lists the labels of the rules active for this operation list,
// in evaluation order.
func (c *Classifier) RuleLabels() []PolarLabel {
	out := make([]PolarLabel, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.label
	}
	return out
}
