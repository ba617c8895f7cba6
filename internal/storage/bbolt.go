package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket   = []byte("config")   // schema version, timestamps
	SessionsBucket = []byte("sessions") // recovery progress per wallet
)

// Config keys
var (
	ConfigVersion = []byte("version")
	ConfigCreated = []byte("created")
)

var ErrSessionNotFound = errors.New("session not found")

// compactTxSize bounds the bytes copied per transaction during Compact
const compactTxSize = 1 << 20

// openDB opens a session database. Every open, including the reopen after
// Compact, waits at most a second for the file lock.
func openDB(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
}

// Storage provides BBolt-based storage for recovery sessions
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a session database and ensures its buckets exist
func Open(path string) (*Storage, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

func (s *Storage) initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, SessionsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		return config.Put(ConfigCreated, created)
	})
}

// Fingerprint identifies a wallet file or candidate list by content
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Session is the recovery progress for one wallet file
type Session struct {
	Wallet     string    `json:"wallet"`     // wallet fingerprint
	Candidates string    `json:"candidates"` // candidate list fingerprint
	Done       int       `json:"done"`       // leading candidates already tried
	Total      int       `json:"total"`
	Found      int       `json:"found"` // matching candidate index, -1 if none
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
}

// NewSession creates an empty session for a wallet and candidate list
func NewSession(wallet, candidates string, total int) *Session {
	now := time.Now()
	return &Session{
		Wallet:     wallet,
		Candidates: candidates,
		Total:      total,
		Found:      -1,
		Created:    now,
		Updated:    now,
	}
}

// Matches reports whether the session was recorded for the same candidate list
func (s *Session) Matches(candidates string) bool {
	return s.Candidates == candidates
}

// Complete reports whether every candidate has been tried or one matched
func (s *Session) Complete() bool {
	return s.Found >= 0 || s.Done >= s.Total
}

// PutSession stores a session under its wallet fingerprint
func (s *Storage) PutSession(session *Session) error {
	session.Updated = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(SessionsBucket)
		return sessions.Put([]byte(session.Wallet), data)
	})
}

// GetSession returns the session for a wallet fingerprint
func (s *Storage) GetSession(wallet string) (*Session, error) {
	var session *Session
	err := s.db.View(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(SessionsBucket)
		if sessions == nil {
			return fmt.Errorf("sessions bucket not found")
		}
		data := sessions.Get([]byte(wallet))
		if data == nil {
			return ErrSessionNotFound
		}
		session = &Session{}
		return json.Unmarshal(data, session)
	})
	return session, err
}

// UpdateProgress records that the first done candidates have been tried
func (s *Storage) UpdateProgress(wallet string, done int) error {
	return s.updateSession(wallet, func(session *Session) {
		if done > session.Done {
			session.Done = done
		}
	})
}

// MarkFound records the matching candidate index
func (s *Storage) MarkFound(wallet string, index int) error {
	return s.updateSession(wallet, func(session *Session) {
		session.Found = index
	})
}

func (s *Storage) updateSession(wallet string, fn func(*Session)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(SessionsBucket)
		data := sessions.Get([]byte(wallet))
		if data == nil {
			return ErrSessionNotFound
		}

		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			return err
		}
		fn(&session)
		session.Updated = time.Now()

		updated, err := json.Marshal(&session)
		if err != nil {
			return err
		}
		return sessions.Put([]byte(wallet), updated)
	})
}

// DeleteSession removes the session for a wallet fingerprint
func (s *Storage) DeleteSession(wallet string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(SessionsBucket)
		if sessions.Get([]byte(wallet)) == nil {
			return ErrSessionNotFound
		}
		return sessions.Delete([]byte(wallet))
	})
}

// ListSessions returns all stored sessions
func (s *Storage) ListSessions() ([]Session, error) {
	var list []Session
	err := s.db.View(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(SessionsBucket)
		if sessions == nil {
			return fmt.Errorf("sessions bucket not found")
		}
		return sessions.ForEach(func(k, v []byte) error {
			var session Session
			if err := json.Unmarshal(v, &session); err != nil {
				return err
			}
			list = append(list, session)
			return nil
		})
	})
	return list, err
}

// Compact rewrites the database into a fresh file to reclaim the space left
// by deleted sessions, swaps it in and reopens it
func (s *Storage) Compact() error {
	path := s.db.Path()
	tmpPath := path + ".compact"
	os.Remove(tmpPath)

	dst, err := openDB(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}
	if err := bolt.Compact(dst, s.db, compactTxSize); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy sessions: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close session database: %w", err)
	}

	renameErr := os.Rename(tmpPath, path)
	if renameErr != nil {
		os.Remove(tmpPath)
	}

	// Reopen either the compacted file or, on failure, the original
	db, err := openDB(path)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}
	s.db = db

	if renameErr != nil {
		return fmt.Errorf("failed to replace database: %w", renameErr)
	}
	return nil
}
