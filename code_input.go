package challenge

import "strings"

// codeInput is the fixed-length digit buffer behind the code-entry boxes.
// Slots hold '0'–'9' or zero for empty. The cursor mirrors the focused box;
// it is a UX convenience and carries no correctness weight.
type codeInput struct {
	slots  []byte
	cursor int
}

func newCodeInput(digits int) codeInput {
	return codeInput{slots: make([]byte, digits)}
}

func (c *codeInput) length() int {
	return len(c.slots)
}

// set writes value into slot index. Accepts a single ASCII digit only.
func (c *codeInput) set(index int, value byte) error {
	if index < 0 || index >= len(c.slots) {
		return ErrSlotOutOfRange
	}
	if value < '0' || value > '9' {
		return ErrDigitInvalid
	}
	c.slots[index] = value
	if index < len(c.slots)-1 {
		c.cursor = index + 1
	} else {
		c.cursor = index
	}
	return nil
}

// clear empties slot index. Clearing an already-empty slot moves the cursor
// back instead, matching backspace behavior in the entry boxes.
func (c *codeInput) clear(index int) error {
	if index < 0 || index >= len(c.slots) {
		return ErrSlotOutOfRange
	}
	if c.slots[index] == 0 && index > 0 {
		c.cursor = index - 1
		c.slots[c.cursor] = 0
		return nil
	}
	c.slots[index] = 0
	c.cursor = index
	return nil
}

// paste fills slots from index with the digits of value, in order, discarding
// whatever does not fit past the final slot. Non-digit runes are skipped so a
// value pasted as "123 456" still lands cleanly. Deterministic; never errors.
func (c *codeInput) paste(index int, value string) error {
	if index < 0 || index >= len(c.slots) {
		return ErrSlotOutOfRange
	}
	pos := index
	for _, r := range value {
		if r < '0' || r > '9' {
			continue
		}
		if pos >= len(c.slots) {
			break
		}
		c.slots[pos] = byte(r)
		pos++
	}
	if pos > 0 {
		c.cursor = pos - 1
	}
	if pos < len(c.slots) {
		c.cursor = pos
	}
	return nil
}

func (c *codeInput) reset() {
	for i := range c.slots {
		c.slots[i] = 0
	}
	c.cursor = 0
}

func (c *codeInput) complete() bool {
	for _, s := range c.slots {
		if s == 0 {
			return false
		}
	}
	return true
}

// assembled returns the entered code, or "" when incomplete.
func (c *codeInput) assembled() string {
	if !c.complete() {
		return ""
	}
	var b strings.Builder
	b.Grow(len(c.slots))
	for _, s := range c.slots {
		b.WriteByte(s)
	}
	return b.String()
}

// snapshot returns the slot contents with 0 for empty, for rendering.
func (c *codeInput) snapshot() []byte {
	out := make([]byte, len(c.slots))
	copy(out, c.slots)
	return out
}
