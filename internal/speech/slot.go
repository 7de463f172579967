package speech

import "sync"

// Slot владеет единственным активным воспроизведением.
// Release сдвигает эпоху: handle, подготовленный до Release, в слот уже не попадёт.
type Slot struct {
	mu      sync.Mutex
	current Handle
	epoch   uint64
}

// ReplaceIf синхронно останавливает прежний handle и ставит h, только если
// с эпохи epoch не было Release. Иначе h останавливается и в слот не попадает.
func (s *Slot) ReplaceIf(epoch uint64, h Handle) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false, h.Stop()
	}
	return true, s.install(h)
}

func (s *Slot) install(h Handle) error {
	var err error
	if s.current != nil && s.current != h {
		err = s.current.Stop()
	}
	s.current = h
	return err
}

// Release останавливает и освобождает текущий handle и возвращает новую эпоху
func (s *Slot) Release() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	if s.current == nil {
		return s.epoch, nil
	}
	err := s.current.Stop()
	s.current = nil
	return s.epoch, err
}

// ReleaseIf освобождает слот, только если в нём всё ещё h.
// Поздний сигнал от уже заменённого handle ничего не делает.
func (s *Slot) ReleaseIf(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != h {
		return false
	}
	_ = s.current.Stop()
	s.current = nil
	return true
}

func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}
