package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats holds the fetch counters of one calendar month.
type MonthlyStats struct {
	PageCacheHits   int       `json:"page_hits"`
	PageCacheMisses int       `json:"page_misses"`
	PagesAnalyzed   int       `json:"pages_analyzed"`
	FetchFailures   int       `json:"fetch_failures"`
	LastUpdated     time.Time `json:"last_updated"`
}

// Storage keeps monthly counters in memory and writes them to a JSON file
// in the background.
type Storage struct {
	mutex       sync.RWMutex
	writeMu     sync.Mutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	shutdown    sync.Once
	now         func() time.Time
}

// NewStorage creates the data directory if needed, loads any existing
// counters and starts the background writer.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		now:         time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// Flush writes the counters to disk through a temporary file and rename.
func (s *Storage) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.stopped)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.Flush(); err != nil {
			slog.Warn("failed to persist fetch statistics", "error", err)
		}
	}
}

func (s *Storage) monthKey() string {
	return s.now().Format("2006-01")
}

// requestWrite asks the background writer for a save unless one is pending.
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

func (s *Storage) increment(update func(*MonthlyStats)) {
	month := s.monthKey()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}
	update(stats)
	stats.LastUpdated = s.now()

	if s.now().Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = s.now()
	}
}

// RecordCacheHit counts an analysis served from the page cache.
func (s *Storage) RecordCacheHit() {
	s.increment(func(m *MonthlyStats) { m.PageCacheHits++ })
}

// RecordCacheMiss counts an analysis that had to fetch the page.
func (s *Storage) RecordCacheMiss() {
	s.increment(func(m *MonthlyStats) { m.PageCacheMisses++ })
}

// RecordFetch counts a fetched page, failed or analyzed.
func (s *Storage) RecordFetch(failed bool) {
	s.increment(func(m *MonthlyStats) {
		if failed {
			m.FetchFailures++
			return
		}
		m.PagesAnalyzed++
	})
}

// GetCurrentStats returns the counters of the current month.
func (s *Storage) GetCurrentStats() MonthlyStats {
	month := s.monthKey()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[month]; exists {
		return *stats
	}
	return MonthlyStats{}
}

// Cleanup drops every month older than the last retainMonths months,
// the current month included.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}

	now := s.now()
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[monthsBefore(now, i)] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
}

// monthsBefore returns the "YYYY-MM" key n calendar months before t. It
// counts from the first of the month so day 31 never spills into the next
// month.
func monthsBefore(t time.Time, n int) string {
	return time.Date(t.Year(), t.Month()-time.Month(n), 1, 0, 0, 0, 0, t.Location()).Format("2006-01")
}

// GetMonthlyStats returns the counters for yearMonth ("YYYY-MM").
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths lists the months with counters, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and saves the counters one last time.
func (s *Storage) Shutdown() error {
	s.shutdown.Do(func() {
		close(s.done)
		<-s.stopped
	})
	return s.Flush()
}
