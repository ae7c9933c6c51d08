package resource

// Selection is the resolved per-kind inclusion decision of one run.
// The zero value selects nothing; build one with NewSelection.
type Selection struct {
	include map[Kind]bool
}

// NewSelection applies the opt-in rule to explicit flags: when no flag is
// true every kind is selected, otherwise exactly the true flags are.
// Unknown kinds in flags are ignored.
func NewSelection(flags map[Kind]bool) Selection {
	anySet := false
	for _, k := range All {
		if flags[k] {
			anySet = true
			break
		}
	}

	include := make(map[Kind]bool, len(All))
	for _, k := range All {
		include[k] = !anySet || flags[k]
	}
	return Selection{include: include}
}

// Includes reports whether kind is part of the export.
func (s Selection) Includes(kind Kind) bool {
	return s.include[kind]
}

// Kinds returns the selected kinds in canonical order.
func (s Selection) Kinds() []Kind {
	var kinds []Kind
	for _, k := range All {
		if s.include[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Map returns a copy of the selection as a complete kind to bool map.
func (s Selection) Map() map[Kind]bool {
	m := make(map[Kind]bool, len(All))
	for _, k := range All {
		m[k] = s.include[k]
	}
	return m
}
