package pitfall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Service owns all process-wide state: the credential store, the uploads
// storage, the serialized counter and the monitor registry.
type Service struct {
	users    UserStore
	storage  FileStorage
	counter  *Counter
	monitors *MonitorRegistry

	seqSize int
	seqMax  int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	Counter         CounterConfig
	MonitorInterval time.Duration // Default monitor interval (default: 1s)
	SequenceSize    int           // Duplicate finder input size (default: 10000)
	SequenceMax     int           // Duplicate finder value bound, exclusive (default: 1000)
	Seed            *[2]uint64    // Fixed PCG seed for the duplicate finder, random when nil
	Logger          *slog.Logger
}

func NewService(users UserStore, storage FileStorage, cfg ServiceConfig) (*Service, error) {
	if users == nil {
		return nil, errors.New("new service: user store is required")
	}
	if storage == nil {
		return nil, errors.New("new service: file storage is required")
	}

	seqSize := cfg.SequenceSize
	if seqSize <= 0 {
		seqSize = DefaultSequenceSize
	}
	seqMax := cfg.SequenceMax
	if seqMax <= 0 {
		seqMax = DefaultSequenceMax
	}

	var src *rand.PCG
	if cfg.Seed != nil {
		src = rand.NewPCG(cfg.Seed[0], cfg.Seed[1])
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	return &Service{
		users:    users,
		storage:  storage,
		counter:  NewCounter(cfg.Counter),
		monitors: NewMonitorRegistry(cfg.MonitorInterval, cfg.Logger),
		seqSize:  seqSize,
		seqMax:   seqMax,
		rng:      rand.New(src),
	}, nil
}

// Login matches username and password exactly against the credential store.
//
// Returns ErrUnauthorized for an unknown username or a wrong password. The
// returned record includes the plaintext password.
func (s *Service) Login(ctx context.Context, username, password string) (UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return UserRecord{}, fmt.Errorf("login: %w", err)
	}

	if username == "" {
		return UserRecord{}, fmt.Errorf("login: %w", ErrUnauthorized)
	}

	user, err := s.users.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UserRecord{}, fmt.Errorf("login: %w", ErrUnauthorized)
		}
		return UserRecord{}, fmt.Errorf("login: %w", err)
	}

	if user.Username != username || user.Password != password {
		return UserRecord{}, fmt.Errorf("login: %w", ErrUnauthorized)
	}

	return user, nil
}

// ReadFile returns the contents of a file in the uploads directory.
//
// The name goes through two layers before any file is touched:
//  1. IsValidFilename rejects empty names, "..", "/" and "\"
//  2. SanitizeFilename strips characters outside [A-Za-z0-9.-_]
//
// The storage then resolves the sanitized name and re-checks that it stays
// inside the base directory.
//
// Error types returned:
//   - ErrInvalidInput: name failed validation
//   - ErrInvalidPath: resolved path escapes the base directory
//   - ErrNotFound: file does not exist
func (s *Service) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	if !IsValidFilename(name) {
		return nil, fmt.Errorf("read file: %w", ErrInvalidInput)
	}

	data, err := s.storage.Read(ctx, SanitizeFilename(name))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// Duplicates generates a fresh random sequence and returns its duplicate values.
func (s *Service) Duplicates(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("duplicates: %w", err)
	}

	s.rngMu.Lock()
	nums := GenerateSequence(s.rng, s.seqSize, s.seqMax)
	s.rngMu.Unlock()

	return FindDuplicates(nums), nil
}

// StartMonitor starts a background task and returns the registry size.
// There is no matching stop operation; tasks run until Close.
func (s *Service) StartMonitor(ctx context.Context, interval time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("start monitor: %w", err)
	}

	return s.monitors.Start(interval), nil
}

// Increment runs one serialized counter cycle and returns the new value.
func (s *Service) Increment(ctx context.Context) (int64, error) {
	return s.counter.Increment(ctx)
}

// Users returns every record in the credential store.
func (s *Service) Users(ctx context.Context) ([]UserRecord, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CounterValue returns the current counter value without locking.
func (s *Service) CounterValue() int64 {
	return s.counter.Value()
}

// MonitorCount returns how many monitor tasks were ever started.
func (s *Service) MonitorCount() int {
	return s.monitors.Len()
}

// RunningMonitors returns how many monitor tasks are still ticking.
func (s *Service) RunningMonitors() int {
	return s.monitors.Running()
}

func (s *Service) Counter() *Counter {
	return s.counter
}

func (s *Service) Monitors() *MonitorRegistry {
	return s.monitors
}

// Close stops every monitor task.
func (s *Service) Close() {
	s.monitors.Close()
}
