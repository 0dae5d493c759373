package storage

import (
	"crypto/md5"
	"encoding/hex"
	"sync"

	"github.com/uncle-T0ny/nearmarket/internal/models"
)

// MemoryStore is the in-memory Storage implementation.
type MemoryStore struct {
	mu             sync.RWMutex
	sessions       map[int64]models.Session
	pendingAnswers map[int64]models.PendingAnswer
	sellDrafts     map[int64]map[string]models.SellDraft
	pairs          map[string]string
	tokenMeta      map[string]models.TokenMeta
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:       make(map[int64]models.Session),
		pendingAnswers: make(map[int64]models.PendingAnswer),
		sellDrafts:     make(map[int64]map[string]models.SellDraft),
		pairs:          make(map[string]string),
		tokenMeta:      make(map[string]models.TokenMeta),
	}
}

func (s *MemoryStore) SetSession(chatID int64, session models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = session
}

func (s *MemoryStore) GetSession(chatID int64) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[chatID]
	return session, ok
}

func (s *MemoryStore) SetPendingAnswer(chatID int64, answer models.PendingAnswer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingAnswers[chatID] = answer
}

// TakePendingAnswer returns the installed answer and removes it in the same
// critical section, so two readers can never both observe it.
func (s *MemoryStore) TakePendingAnswer(chatID int64) (models.PendingAnswer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.pendingAnswers[chatID]
	if ok {
		delete(s.pendingAnswers, chatID)
	}
	return answer, ok
}

func (s *MemoryStore) SetSellDraft(chatID int64, draftID string, draft models.SellDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drafts, ok := s.sellDrafts[chatID]
	if !ok {
		drafts = make(map[string]models.SellDraft)
		s.sellDrafts[chatID] = drafts
	}
	drafts[draftID] = draft
}

func (s *MemoryStore) GetSellDraft(chatID int64, draftID string) (models.SellDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.sellDrafts[chatID][draftID]
	return draft, ok
}

// RegisterPair maps a content hash of the pair string to the pair itself.
// The value is idempotent per key, so concurrent registration of the same
// pair from different chats is harmless.
func (s *MemoryStore) RegisterPair(pair string) string {
	sum := md5.Sum([]byte(pair))
	handle := hex.EncodeToString(sum[:])
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[handle] = pair
	return handle
}

func (s *MemoryStore) ResolvePair(handle string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair, ok := s.pairs[handle]
	return pair, ok
}

func (s *MemoryStore) TokenMeta(tokenAccID string) (models.TokenMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.tokenMeta[tokenAccID]
	return meta, ok
}

func (s *MemoryStore) SetTokenMeta(tokenAccID string, meta models.TokenMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenMeta[tokenAccID] = meta
}
