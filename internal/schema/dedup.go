package schema

import "strconv"

// dedup collapses structurally identical records into one arena entry and
// compacts the arena to the records reachable from the root. It must run
// after all merges are complete: deduplicating earlier could hide legitimate
// optional-field differences between occurrences that have not merged yet.
func (inf *inferencer) dedup() {
	s := inf.schema

	// Canonical index per shape signature, in first-seen arena order.
	canonical := make(map[string]int)
	remap := make(map[int]int, len(s.Records))

	for i := range s.Records {
		sig := s.recordSignature(i)

		if c, ok := canonical[sig]; ok {
			remap[i] = c
			continue
		}

		canonical[sig] = i
		remap[i] = i
	}

	for _, r := range s.Records {
		for i := range r.Fields {
			remapType(&r.Fields[i].Type, remap)
		}
	}

	s.Root = remap[s.Root]

	inf.compact()
}

// compact rebuilds the arena with only the records reachable from the root,
// preserving first-seen order, and renumbers all references.
func (inf *inferencer) compact() {
	s := inf.schema

	reachable := make(map[int]bool)
	markReachable(s, s.Root, reachable)

	renum := make(map[int]int, len(reachable))
	kept := make([]*Record, 0, len(reachable))

	for i, r := range s.Records {
		if reachable[i] {
			renum[i] = len(kept)
			kept = append(kept, r)
		}
	}

	for _, r := range kept {
		for i := range r.Fields {
			remapType(&r.Fields[i].Type, renum)
		}
	}

	s.Records = kept
	s.Root = renum[s.Root]
}

func markReachable(s *Schema, ref int, reachable map[int]bool) {
	if reachable[ref] {
		return
	}

	reachable[ref] = true

	for _, f := range s.Records[ref].Fields {
		markReachableType(s, f.Type, reachable)
	}
}

func markReachableType(s *Schema, t Type, reachable map[int]bool) {
	switch t.Kind {
	case TypeOptional, TypeList:
		markReachableType(s, *t.Elem, reachable)
	case TypeRecord:
		markReachable(s, t.Ref, reachable)
	}
}

func remapType(t *Type, remap map[int]int) {
	switch t.Kind {
	case TypeOptional, TypeList:
		remapType(t.Elem, remap)
	case TypeRecord:
		t.Ref = remap[t.Ref]
	}
}

// assignNames gives every record its final collision-free name. The root
// record always receives rootName; other records get their preferred name,
// with distinct shapes competing for the same name disambiguated by a
// numeric suffix in first-seen order.
func (inf *inferencer) assignNames(rootName string) {
	s := inf.schema

	taken := make(map[string]bool, len(s.Records))

	root := s.Records[s.Root]
	root.Name = TypeName(rootName)
	taken[root.Name] = true

	for i, r := range s.Records {
		if i == s.Root {
			continue
		}

		name := r.preferred
		if name == "" {
			name = "Record"
		}

		r.Name = disambiguate(name, taken)
		taken[r.Name] = true
	}
}

// disambiguate returns name, or the first name+index not yet taken.
func disambiguate(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}

	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
}
