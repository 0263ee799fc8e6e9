package common

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/samber/do/v2"
	"github.com/vreid/matchrank/internal/pkg/rating"
	bolt "go.etcd.io/bbolt"
)

const (
	PlayersBucket = "players"
	HistoryBucket = "history"
	MatchesBucket = "matches"
)

var (
	ErrPlayerNotFound        = errors.New("player not found")
	ErrPlayersBucketNotFound = errors.New("players bucket doesn't exist")
	ErrHistoryBucketNotFound = errors.New("history bucket doesn't exist")
	ErrMatchesBucketNotFound = errors.New("matches bucket doesn't exist")
)

type DatabaseService struct {
	DB *bolt.DB
}

func NewDatabaseService(i do.Injector) (*DatabaseService, error) {
	dataDir := do.MustInvokeNamed[string](i, "data-dir")

	return OpenDatabase(dataDir)
}

// OpenDatabase opens matchrank.db inside dataDir, creating both buckets.
func OpenDatabase(dataDir string) (*DatabaseService, error) {
	err := os.MkdirAll(dataDir, 0750)
	if err != nil {
		return nil, fmt.Errorf("failed to create database path: %w", err)
	}

	dbPath := path.Join(dataDir, "matchrank.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{
			PlayersBucket,
			HistoryBucket,
			MatchesBucket,
		} {
			_, err := tx.CreateBucketIfNotExists([]byte(bucket))
			if err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", bucket, err)
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to initialize database buckets: %w", err)
	}

	return &DatabaseService{
		DB: db,
	}, nil
}

func (s *DatabaseService) Shutdown() error {
	//nolint:wrapcheck
	return s.DB.Close()
}

func (s *DatabaseService) GetPlayer(id string) (rating.PlayerRating, error) {
	var player rating.PlayerRating

	err := s.DB.View(func(tx *bolt.Tx) error {
		var err error

		player, err = GetPlayerTx(tx, id)

		return err
	})

	//nolint:wrapcheck
	return player, err
}

func (s *DatabaseService) PutPlayer(player rating.PlayerRating) error {
	//nolint:wrapcheck
	return s.DB.Update(func(tx *bolt.Tx) error {
		return PutPlayerTx(tx, player)
	})
}

func (s *DatabaseService) ListPlayers() ([]rating.PlayerRating, error) {
	players := []rating.PlayerRating{}

	err := s.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(PlayersBucket))
		if bucket == nil {
			return ErrPlayersBucketNotFound
		}

		return bucket.ForEach(func(k, v []byte) error {
			var player rating.PlayerRating

			err := json.Unmarshal(v, &player)
			if err != nil {
				return fmt.Errorf("failed to unmarshal player %s: %w", k, err)
			}

			players = append(players, player)

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	return players, nil
}

func (s *DatabaseService) History(id string) ([]rating.MatchRecord, error) {
	var history []rating.MatchRecord

	err := s.DB.View(func(tx *bolt.Tx) error {
		var err error

		history, err = HistoryTx(tx, id)

		return err
	})

	//nolint:wrapcheck
	return history, err
}

func GetPlayerTx(tx *bolt.Tx, id string) (rating.PlayerRating, error) {
	var player rating.PlayerRating

	bucket := tx.Bucket([]byte(PlayersBucket))
	if bucket == nil {
		return player, ErrPlayersBucketNotFound
	}

	data := bucket.Get([]byte(id))
	if data == nil {
		return player, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}

	err := json.Unmarshal(data, &player)
	if err != nil {
		return player, fmt.Errorf("failed to unmarshal player %s: %w", id, err)
	}

	return player, nil
}

func PutPlayerTx(tx *bolt.Tx, player rating.PlayerRating) error {
	bucket := tx.Bucket([]byte(PlayersBucket))
	if bucket == nil {
		return ErrPlayersBucketNotFound
	}

	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player %s: %w", player.ID, err)
	}

	err = bucket.Put([]byte(player.ID), data)
	if err != nil {
		return fmt.Errorf("failed to put player %s: %w", player.ID, err)
	}

	return nil
}

// HistoryTx returns the player's records in insertion order; an unknown player
// has an empty history.
func HistoryTx(tx *bolt.Tx, id string) ([]rating.MatchRecord, error) {
	history := []rating.MatchRecord{}

	root := tx.Bucket([]byte(HistoryBucket))
	if root == nil {
		return nil, ErrHistoryBucketNotFound
	}

	bucket := root.Bucket([]byte(id))
	if bucket == nil {
		return history, nil
	}

	err := bucket.ForEach(func(_, v []byte) error {
		var record rating.MatchRecord

		err := json.Unmarshal(v, &record)
		if err != nil {
			return fmt.Errorf("failed to unmarshal match record: %w", err)
		}

		history = append(history, record)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", id, err)
	}

	return history, nil
}

func AppendMatchTx(tx *bolt.Tx, id string, record rating.MatchRecord) error {
	root := tx.Bucket([]byte(HistoryBucket))
	if root == nil {
		return ErrHistoryBucketNotFound
	}

	bucket, err := root.CreateBucketIfNotExists([]byte(id))
	if err != nil {
		return fmt.Errorf("failed to create history bucket for %s: %w", id, err)
	}

	seq, err := bucket.NextSequence()
	if err != nil {
		return fmt.Errorf("failed to allocate history key: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}

	err = bucket.Put(sequenceKey(seq), data)
	if err != nil {
		return fmt.Errorf("failed to put match record: %w", err)
	}

	return nil
}

// MatchAppliedTx reports whether an outcome for matchID has already been stored.
func MatchAppliedTx(tx *bolt.Tx, matchID string) (bool, error) {
	bucket := tx.Bucket([]byte(MatchesBucket))
	if bucket == nil {
		return false, ErrMatchesBucketNotFound
	}

	return bucket.Get([]byte(matchID)) != nil, nil
}

func MarkMatchAppliedTx(tx *bolt.Tx, matchID string, appliedAt time.Time) error {
	bucket := tx.Bucket([]byte(MatchesBucket))
	if bucket == nil {
		return ErrMatchesBucketNotFound
	}

	data, err := appliedAt.UTC().MarshalText()
	if err != nil {
		return fmt.Errorf("failed to marshal match timestamp: %w", err)
	}

	err = bucket.Put([]byte(matchID), data)
	if err != nil {
		return fmt.Errorf("failed to mark match %s as applied: %w", matchID, err)
	}

	return nil
}

// sequenceKey is big-endian so bbolt's byte ordering matches insertion order.
func sequenceKey(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)

	return buf
}
