package blocks

// IsConnectionAllowed reports whether c may attach to candidate during a
// drag: candidate must be within maxRadius and pass every compatibility
// rule.
func (c *Connection) IsConnectionAllowed(candidate *Connection, maxRadius float64) bool {
	if candidate == nil || c.DistanceFrom(candidate) > maxRadius {
		return false
	}
	return c.compatible(candidate)
}

// compatible applies the distance-independent rules for offering candidate
// to a dragged connection c.
func (c *Connection) compatible(cand *Connection) bool {
	if cand == nil || cand == c || cand.hidden {
		return false
	}
	if cand.kind != c.kind.Opposite() || cand.block == c.block {
		return false
	}
	ws := c.block.ws
	if cand.block.ws != ws || ws.opts.Palette {
		return false
	}
	if c.block.disposed || cand.block.disposed || !c.CheckType(cand) {
		return false
	}
	parent, child := orient(c, cand)
	if parent.block.shadow && !child.block.shadow {
		return false
	}
	if c.block.isAncestorOf(cand.block) || cand.block.isAncestorOf(c.block) {
		return false
	}

	switch c.kind {
	case Output:
		// A plug already in a socket does not search; an occupied socket is
		// only offered when its occupant is a shadow.
		if c.target != nil {
			return false
		}
		if t := cand.TargetBlock(); t != nil && !t.shadow {
			return false
		}
	case InputValue:
		if cand.target != nil {
			return false
		}
		if t := c.TargetBlock(); t != nil && !t.movable && !t.shadow {
			return false
		}
	case PreviousStatement:
		if c.target != nil {
			return false
		}
		// Splicing into an occupied next needs somewhere to put the blocks
		// that were below it.
		if t := cand.TargetBlock(); t != nil && !t.shadow && c.block.next == nil {
			return false
		}
	case NextStatement:
		if cand.target != nil {
			return false
		}
		if t := c.TargetBlock(); t != nil && !t.shadow && cand.block.lastConnectionInStack() == nil {
			return false
		}
	}
	return true
}
