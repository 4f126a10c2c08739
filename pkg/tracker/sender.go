package tracker

import (
	"strings"
	"sync"
	"time"
)

// SenderTracker keeps a sliding window of classification verdicts per
// envelope sender
type SenderTracker struct {
	mu      sync.Mutex
	senders map[string]*SenderStats

	window       time.Duration
	maxCacheSize int

	now func() time.Time
}

// SenderStats tracks verdicts for one sender
type SenderStats struct {
	Sender        string
	Domain        string
	TotalMessages int
	TotalPhishing int
	FirstSeen     time.Time
	LastSeen      time.Time

	recent []verdict
}

type verdict struct {
	at       time.Time
	phishing bool
}

// SenderResult summarizes a sender's recent history after a message
type SenderResult struct {
	MessagesInWindow int
	PhishingInWindow int
	PhishingRatio    float64 // over the window
	FirstSeen        time.Time
}

// NewSenderTracker creates a tracker with a window and a soft cap on the
// number of senders kept
func NewSenderTracker(window time.Duration, maxCacheSize int) *SenderTracker {
	return &SenderTracker{
		senders:      make(map[string]*SenderStats),
		window:       window,
		maxCacheSize: maxCacheSize,
		now:          time.Now,
	}
}

// Record adds a verdict for sender and returns its history within the window
func (st *SenderTracker) Record(sender string, phishing bool) *SenderResult {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	sender = strings.ToLower(strings.Trim(sender, "<> "))

	stats, exists := st.senders[sender]
	if !exists {
		stats = &SenderStats{
			Sender:    sender,
			Domain:    domainOf(sender),
			FirstSeen: now,
		}
		st.senders[sender] = stats
	}

	stats.TotalMessages++
	if phishing {
		stats.TotalPhishing++
	}
	stats.LastSeen = now
	stats.recent = append(stats.recent, verdict{at: now, phishing: phishing})
	stats.recent = trimWindow(stats.recent, now.Add(-st.window))

	result := &SenderResult{
		MessagesInWindow: len(stats.recent),
		FirstSeen:        stats.FirstSeen,
	}
	for _, v := range stats.recent {
		if v.phishing {
			result.PhishingInWindow++
		}
	}
	result.PhishingRatio = float64(result.PhishingInWindow) / float64(result.MessagesInWindow)

	if st.maxCacheSize > 0 && len(st.senders) > st.maxCacheSize {
		st.evictIdle(now)
	}

	return result
}

// trimWindow drops verdicts at or before cutoff; verdicts are in time order
func trimWindow(recent []verdict, cutoff time.Time) []verdict {
	for i, v := range recent {
		if v.at.After(cutoff) {
			return recent[i:]
		}
	}
	return recent[:0]
}

// evictIdle removes senders with nothing inside the window
func (st *SenderTracker) evictIdle(now time.Time) {
	cutoff := now.Add(-st.window)
	for sender, stats := range st.senders {
		if !stats.LastSeen.After(cutoff) {
			delete(st.senders, sender)
		}
	}
}

// GetSenderStats returns a copy of the statistics for sender, or nil
func (st *SenderTracker) GetSenderStats(sender string) *SenderStats {
	st.mu.Lock()
	defer st.mu.Unlock()

	stats, exists := st.senders[strings.ToLower(strings.Trim(sender, "<> "))]
	if !exists {
		return nil
	}
	statsCopy := *stats
	statsCopy.recent = nil
	return &statsCopy
}

// Len returns the number of senders tracked
func (st *SenderTracker) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.senders)
}

// Reset clears all tracking data
func (st *SenderTracker) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.senders = make(map[string]*SenderStats)
}

func domainOf(sender string) string {
	if idx := strings.LastIndex(sender, "@"); idx >= 0 {
		return sender[idx+1:]
	}
	return ""
}
