package treeboard

import "sync"

// Modal identifies the overlay currently shown
type Modal int

const (
	ModalNone Modal = iota
	ModalAdd
	ModalDelete
	ModalConvert
	ModalUpload
)

func (m Modal) String() string {
	switch m {
	case ModalAdd:
		return "add"
	case ModalDelete:
		return "delete"
	case ModalConvert:
		return "convert"
	case ModalUpload:
		return "upload"
	default:
		return "none"
	}
}

// ModalSlot holds at most one open modal. Opening one replaces whatever
// was open; the inline validation message belongs to the open modal.
type ModalSlot struct {
	mu     sync.RWMutex
	open   Modal
	inline string
}

// Open shows m, closing any other modal
func (s *ModalSlot) Open(m Modal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = m
	s.inline = ""
}

// Close hides the open modal
func (s *ModalSlot) Close() {
	s.Open(ModalNone)
}

// SetInline attaches a validation message to the open modal
func (s *ModalSlot) SetInline(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open == ModalNone {
		return
	}
	s.inline = msg
}

// Current returns the open modal
func (s *ModalSlot) Current() Modal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.open
}

// Inline returns the validation message of the open modal
func (s *ModalSlot) Inline() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inline
}
